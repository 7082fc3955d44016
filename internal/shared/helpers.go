// Package shared provides common utility functions used across multiple
// packages in the emsdk codebase.
package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return err
	}
	return fmt.Errorf("%s: %w", trimmed, err)
}

// PathListSeparator returns the PATH separator used by the given OS name.
func PathListSeparator(goos string) string {
	if goos == "windows" {
		return ";"
	}
	return ":"
}

// PrependPathList puts value in front of a PATH-style list.
func PrependPathList(list string, value string, goos string) string {
	if strings.TrimSpace(list) == "" {
		return value
	}
	return value + PathListSeparator(goos) + list
}

// ErrorMessage returns the builder message of err when it has one, its full
// text otherwise.
func ErrorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

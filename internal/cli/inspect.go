package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"emsdk/internal/app"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <tool or sdk>",
		Short: "Show where a tool installs and what activating it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			result, err := service.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printInspect(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printInspect(w io.Writer, result app.InspectResult) {
	kind := "tool"
	if result.IsSDK {
		kind = "sdk"
	}
	fmt.Fprintln(w, header.Render(result.Name)+" "+renderLabel("("+kind+")"))
	field := func(label string, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s %s\n", renderLabel(label+":"), value)
		}
	}
	if len(result.Uses) > 0 {
		field("uses", strings.Join(result.Uses, ", "))
	}
	if !result.IsSDK {
		field("install path", result.InstallPath)
		field("download", result.DownloadURL)
	}
	if result.FromSource {
		field("source", "built from source")
	}
	switch {
	case result.Unavailable != "":
		fmt.Fprintln(w, "  "+renderError("not available: "+result.Unavailable))
	case result.Active:
		fmt.Fprintln(w, "  "+renderOK("installed and active"))
	case result.Installed:
		fmt.Fprintln(w, "  "+renderOK("installed"))
	default:
		fmt.Fprintln(w, "  "+renderLabel("not installed"))
	}
	for _, p := range result.Paths {
		field("PATH +=", p)
	}
	for _, entry := range result.Config {
		field("config "+entry.Key, entry.Value)
	}
	for _, v := range result.Env {
		field("env "+v.Key, v.Value)
	}
	if r := result.Receipt; r != nil {
		field("installed from", r.Archive)
		field("sha256", r.SHA256)
		if !r.InstalledAt.IsZero() {
			field("installed at", r.InstalledAt.Local().Format("2006-01-02 15:04:05"))
		}
	}
}

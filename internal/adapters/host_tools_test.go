package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseToolVersion(t *testing.T) {
	cases := map[string]string{
		"cmake version 3.22.1\n\nCMake suite maintained by Kitware": "3.22.1",
		"git version 2.34.1.windows.1":                              "2.34.1",
		"Python 3.9.7":                                              "3.9.7",
		"no version here":                                           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseToolVersion(in), in)
	}
}

func TestLookPathMissing(t *testing.T) {
	_, ok := NewHostToolsAdapter().LookPath("emsdk-definitely-not-a-real-binary")
	assert.False(t, ok)
}

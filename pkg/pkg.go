//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the semantic version of the module embedded at build time.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command identifier. It appears in help text,
	// default config paths, and environment variable prefixes.
	Name = "rtgrammar"
	// Description is a short, human-readable summary used in help output.
	Description = "Syntax validator for RealTest strategy scripts"
	// ScriptExt is the default file extension of strategy scripts.
	ScriptExt = ".rts"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{Name: "johncclayton"},
}

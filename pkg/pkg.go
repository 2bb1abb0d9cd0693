// Package pkg holds identifying metadata for the nestex module.
//
//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, embedded at build time and
// reported by the --version flag.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It also names the configuration and cache
	// directories.
	Name = "nestex"
	// Description summarizes the command for help output.
	Description = "Parse and evaluate nested pseudo-function templates"
)

// AuthorInfo identifies an author of the module.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the module's authors.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

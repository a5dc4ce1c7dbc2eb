// Package pkg holds the identity of the lunar command: its name, version,
// and the per-user directories it reads configuration from and keeps its
// cache in.
package pkg

import (
	_ "embed"
)

// Version is the semantic version printed by --version.
//
//go:embed VERSION
var Version string //nolint:gochecknoglobals

const (
	// Name is the command name. It is the default [Prefix] and names
	// temporary files.
	Name = "lunar"

	Description = "Interpreter for a small Lua-like scripting language"
)

type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project maintainers.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

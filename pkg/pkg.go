//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, read from the embedded
// VERSION file with surrounding whitespace removed.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It also names the configuration and cache
	// directories and prefixes environment variables.
	Name = "artmpl"
	// Description is the one-line summary shown in help output.
	Description = "Template compiler and renderer"
	// PathEnv is the environment variable holding the template search path.
	PathEnv = "ARTMPL_PATH"
	// Extension is the file extension assumed for template names without one.
	Extension = ".art"
)

// AuthorInfo identifies a project author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project authors.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

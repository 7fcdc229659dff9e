package schema

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed cue/*.cue
var builtinFS embed.FS

// LoadBuiltin compiles the schemas shipped with this module for the
// example invokables, for use by enact validate when no project-specific
// schema directory is configured.
func LoadBuiltin() (*Registry, error) {
	entries, err := builtinFS.ReadDir("cue")
	if err != nil {
		return nil, err
	}
	sources := make(map[string]string, len(entries))
	for _, entry := range entries {
		data, err := builtinFS.ReadFile("cue/" + entry.Name())
		if err != nil {
			return nil, err
		}
		sources[entry.Name()] = string(data)
	}
	return NewRegistry(sources)
}

// LoadDir compiles every *.cue file directly under dir into a Registry,
// for a project's own schema directory.
func LoadDir(dir string) (*Registry, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	sources := make(map[string]string, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources[filepath.Base(path)] = string(data)
	}
	return NewRegistry(sources)
}

package fsops

import (
	"os"

	"github.com/WOTOOOOOO/FAQ-tool/internal/safety"
)

// List returns non-recursive entries of a directory under the sandbox,
// with directories suffixed by "/". The local state directory is omitted.
func (r *Root) List(relDir string) ([]string, error) {
	if relDir == "" {
		relDir = "."
	}
	absDir, err := safety.ValidateRelPath(r.read, relDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == safety.StateDir || name == ".git" {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}

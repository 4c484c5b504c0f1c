// Package fsops performs all data file I/O through the safety sandbox.
// Reads open files read-only; writes only ever create new files.
package fsops

import (
	"github.com/WOTOOOOOO/FAQ-tool/internal/safety"
)

// Root is a sandboxed view of the data directory.
type Root struct {
	read      string
	write     string
	protected []string
}

// New resolves the read and write roots (write defaults to read). Base names
// in protected can never be written through this Root.
func New(readRoot, writeRoot string, protected ...string) (*Root, error) {
	r, w, err := safety.InitSandboxRoot(readRoot, writeRoot)
	if err != nil {
		return nil, err
	}
	return &Root{read: r, write: w, protected: protected}, nil
}

// Dir returns the absolute read root.
func (r *Root) Dir() string { return r.read }

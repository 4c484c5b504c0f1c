package fsops

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/WOTOOOOOO/FAQ-tool/internal/safety"
)

// Open opens a data file strictly read-only. Directories are rejected with a
// ToolError; policy violations propagate as ToolError as well.
func (r *Root) Open(relPath string) (*os.File, error) {
	absPath, err := safety.ValidateRelPath(r.read, relPath)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, safety.ToolError{Code: safety.CodeNotAFile, Message: "path is a directory"}
	}

	return os.OpenFile(absPath, os.O_RDONLY, 0)
}

// ReadFile reads a whole data file addressed by a relative path.
func (r *Root) ReadFile(relPath string) (string, error) {
	f, err := r.Open(relPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", err // standard error for I/O issues (not policy)
	}
	return string(b), nil
}

// Exists reports whether relPath names an existing regular file.
func (r *Root) Exists(relPath string) (bool, error) {
	absPath, err := safety.ValidateRelPath(r.read, relPath)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !fi.IsDir(), nil
}

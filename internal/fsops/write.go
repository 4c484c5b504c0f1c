package fsops

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/WOTOOOOOO/FAQ-tool/internal/safety"
)

// ResolveWrite validates relPath for writing and returns its absolute form,
// creating parent directories. Used for files opened by other libraries,
// such as the SQLite index.
func (r *Root) ResolveWrite(relPath string) (string, error) {
	absPath, err := safety.ValidateWritePath(r.write, relPath, r.protected...)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}
	return absPath, nil
}

// CreateFile creates relPath exclusively and streams content into it through
// fill. An existing file is never touched: the call fails with a ToolError
// coded ERR_EXISTS that also matches fs.ErrExist. A failed fill removes the
// partial file.
func (r *Root) CreateFile(relPath string, fill func(io.Writer) error) (err error) {
	absPath, err := r.ResolveWrite(relPath)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return existsError{ToolError: safety.ToolError{Code: safety.CodeExists, Message: filepath.Base(absPath) + " already exists"}}
		}
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(absPath)
		}
	}()

	return fill(f)
}

// existsError lets callers match either the ToolError code or fs.ErrExist.
type existsError struct {
	safety.ToolError
}

func (e existsError) Is(target error) bool { return target == fs.ErrExist }

func (e existsError) As(target any) bool {
	if te, ok := target.(*safety.ToolError); ok {
		*te = e.ToolError
		return true
	}
	return false
}

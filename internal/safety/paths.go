// Package safety confines data file access to the configured data directory.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error codes surfaced in ToolError.Code.
const (
	CodeOutsideSandbox = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead     = "ERR_DENIED_READ"
	CodeDeniedWrite    = "ERR_DENIED_WRITE"
	CodeNotAFile       = "ERR_NOT_A_FILE"
	CodeExists         = "ERR_EXISTS"
)

// StateDir holds local telemetry output and is never served as data.
const StateDir = ".faqtool"

// ToolError is a machine-readable error body for surfacing back to the model as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool_result payloads small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// InitSandboxRoot resolves absolute sandbox roots for read and write operations.
func InitSandboxRoot(readRoot, writeRoot string) (absRead string, absWrite string, err error) {
	// Default readRoot to CWD when empty
	if readRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getwd: %w", err)
		}
		readRoot = cwd
	}

	if writeRoot == "" {
		writeRoot = readRoot
	}

	readRoot, err = filepath.Abs(readRoot)
	if err != nil {
		return "", "", fmt.Errorf("abs(readRoot): %w", err)
	}
	writeRoot, err = filepath.Abs(writeRoot)
	if err != nil {
		return "", "", fmt.Errorf("abs(writeRoot): %w", err)
	}

	// Resolve symlinks where possible so boundary checks are reliable.
	// A root that does not exist yet is kept as-is.
	if r, err := filepath.EvalSymlinks(readRoot); err == nil {
		readRoot = r
	}
	if w, err := filepath.EvalSymlinks(writeRoot); err == nil {
		writeRoot = w
	}

	return readRoot, writeRoot, nil
}

// resolveInside joins relPath to absRoot, follows symlinks as far as they exist
// and returns the candidate plus its slash-separated form relative to the root.
func resolveInside(absRoot, relPath string) (string, string, error) {
	if filepath.IsAbs(relPath) {
		return "", "", ToolError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == "" {
		cleaned = "."
	}
	candidate := filepath.Join(absRoot, cleaned)

	// Resolve the whole candidate if it exists, otherwise the parent, so an
	// escape through a symlinked directory is caught for files not yet created.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else {
		parent := filepath.Dir(candidate)
		if resolvedParent, err2 := filepath.EvalSymlinks(parent); err2 == nil {
			candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
		}
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", "", ToolError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the data directory"}
	}
	return candidate, filepath.ToSlash(rel), nil
}

func underDir(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}

// ValidateRelPath resolves relPath against absRoot and returns an absolute path
// inside the sandbox. It rejects absolute inputs, parent traversal, and symlink
// escapes, and denies reads under .git/ and the local state directory.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	candidate, rel, err := resolveInside(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underDir(rel, ".git") || underDir(rel, StateDir) {
		return "", ToolError{Code: CodeDeniedRead, Message: "reads under .git/ or " + StateDir + "/ are not allowed"}
	}
	return candidate, nil
}

// ValidateWritePath applies the read checks and additionally denies writes to
// any file whose base name is listed in protected. Source documents are passed
// as protected so nothing in the process can overwrite them.
func ValidateWritePath(absRoot, relPath string, protected ...string) (string, error) {
	candidate, rel, err := resolveInside(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underDir(rel, ".git") || underDir(rel, StateDir) {
		return "", ToolError{Code: CodeDeniedWrite, Message: "writes under .git/ or " + StateDir + "/ are not allowed"}
	}
	if rel == "." {
		return "", ToolError{Code: CodeDeniedWrite, Message: "cannot write to the data directory itself"}
	}
	base := filepath.Base(candidate)
	for _, p := range protected {
		if p != "" && base == filepath.Base(p) {
			return "", ToolError{Code: CodeDeniedWrite, Message: base + " is a protected source file"}
		}
	}
	return candidate, nil
}

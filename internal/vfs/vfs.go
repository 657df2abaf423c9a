// Package vfs provides the file system abstraction consumed by root
// discovery and session management.
//
// The FS interface allows swapping the underlying file system
// implementation, enabling testing with in-memory file systems. It is
// deliberately small: the rest of the module only needs to stat paths,
// resolve them to their real (symlink-free) form, and locate executables
// on PATH.
//
// "Not found" is a normal typed result (KindNone), never an error. Errors
// are reserved for genuine I/O faults such as permission failures.
package vfs

import "errors"

// ErrNotExist is returned by RealPath when the path cannot be resolved
// because it does not exist.
var ErrNotExist = errors.New("path does not exist")

// Kind classifies what a path refers to.
type Kind int

const (
	// KindNone means the path does not exist.
	KindNone Kind = iota
	// KindFile means the path is a regular file.
	KindFile
	// KindDir means the path is a directory.
	KindDir
	// KindOther means the path exists but is neither a regular file nor
	// a directory (socket, device, ...).
	KindOther
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// FileInfo describes a stat result.
type FileInfo struct {
	// Path is the path that was queried.
	Path string
	// Kind classifies the path. KindNone means the path does not exist.
	Kind Kind
	// Size is the file size in bytes (zero for directories).
	Size int64
}

// Exists returns true if the path refers to anything at all.
func (fi FileInfo) Exists() bool { return fi.Kind != KindNone }

// IsDir returns true if the path is a directory.
func (fi FileInfo) IsDir() bool { return fi.Kind == KindDir }

// IsFile returns true if the path is a regular file.
func (fi FileInfo) IsFile() bool { return fi.Kind == KindFile }

// FS is the file system driver.
type FS interface {
	// Stat reports what a path refers to. A nonexistent path yields
	// FileInfo{Kind: KindNone} and a nil error; errors are I/O faults
	// only (e.g. permission denied on a parent directory).
	Stat(path string) (FileInfo, error)

	// RealPath resolves a path to its absolute, symlink-free form.
	// Returns ErrNotExist (possibly wrapped) when the path does not
	// exist.
	RealPath(path string) (string, error)

	// LookPath locates an executable by name on the system PATH.
	LookPath(name string) (string, error)
}

package vfs

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// OSFS implements FS using the operating system's file system.
type OSFS struct{}

// NewOSFS creates a new OS file system.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Ensure OSFS implements FS.
var _ FS = (*OSFS)(nil)

// Stat reports what a path refers to.
func (f *OSFS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{Path: path, Kind: KindNone}, nil
		}
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	kind := KindOther
	switch {
	case info.IsDir():
		kind = KindDir
	case info.Mode().IsRegular():
		kind = KindFile
	}

	return FileInfo{Path: path, Kind: kind, Size: info.Size()}, nil
}

// RealPath resolves a path to its absolute, symlink-free form.
func (f *OSFS) RealPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return "", err
	}
	return resolved, nil
}

// LookPath locates an executable on the system PATH.
func (f *OSFS) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Package pathutil provides the path primitives used by root discovery:
// existence checks, separator-normalized join and dirname, and two
// flavors of ancestor traversal (callback-driven and iterator-driven).
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/dshills/anchor/internal/vfs"
)

// sep is the platform path separator.
const sep = string(filepath.Separator)

// MaxAscents bounds ancestor traversal. The bound is a defense against a
// traversal bug causing non-termination; it is never reached in correct
// operation.
const MaxAscents = 100

// Kind reports what a path refers to. A nonexistent path yields
// vfs.KindNone and a nil error; only genuine I/O faults are returned as
// errors.
func Kind(fsys vfs.FS, path string) (vfs.Kind, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return vfs.KindNone, err
	}
	return info.Kind, nil
}

// IsDir returns true if the path is a directory. Stat faults count as
// false.
func IsDir(fsys vfs.FS, path string) bool {
	k, err := Kind(fsys, path)
	return err == nil && k == vfs.KindDir
}

// IsFile returns true if the path is a regular file. Stat faults count
// as false.
func IsFile(fsys vfs.FS, path string) bool {
	k, err := Kind(fsys, path)
	return err == nil && k == vfs.KindFile
}

// Dirname returns the parent directory of a path. A single trailing
// separator is stripped before the final segment is removed. When the
// result would be empty the filesystem root representation is returned,
// so Dirname is idempotent at the root. The empty path propagates as
// ("", false) rather than an error, so callers can chain safely.
func Dirname(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	if len(path) > 1 && strings.HasSuffix(path, sep) {
		path = path[:len(path)-1]
	}

	i := strings.LastIndex(path, sep)
	if i <= 0 {
		return sep, true
	}
	return path[:i], true
}

// Join concatenates path segments with the platform separator and
// collapses any run of repeated separators into one. Argument order is
// preserved; "." and ".." segments are not normalized, callers are
// expected to pass clean segments.
func Join(parts ...string) string {
	joined := strings.Join(parts, sep)
	for strings.Contains(joined, sep+sep) {
		joined = strings.ReplaceAll(joined, sep+sep, sep)
	}
	return joined
}

// isRoot reports whether a path is the filesystem root representation.
func isRoot(path string) bool {
	parent, ok := Dirname(path)
	return ok && parent == path
}

// TraverseParents resolves path to its real form and ascends through its
// parent directories, invoking visit(candidate, resolved) for each one.
// It returns the first candidate for which visit is truthy, along with
// the resolved starting path. It returns ok=false once the filesystem
// root would be visited (the root itself is never a candidate) or when
// the starting path cannot be resolved.
func TraverseParents(fsys vfs.FS, path string, visit func(dir, resolved string) bool) (dir, resolved string, ok bool) {
	resolved, err := fsys.RealPath(path)
	if err != nil {
		return "", "", false
	}

	cur := resolved
	for i := 0; i < MaxAscents; i++ {
		parent, ok := Dirname(cur)
		if !ok || parent == cur || isRoot(parent) {
			return "", "", false
		}
		if visit(parent, resolved) {
			return parent, resolved, true
		}
		cur = parent
	}
	return "", "", false
}

// ParentIterator lazily produces the ancestors of a path in order of
// increasing distance. It is finite and non-restartable; obtain a fresh
// iterator per traversal. The filesystem root is never yielded.
type ParentIterator struct {
	cur       string
	remaining int
	done      bool
}

// Parents resolves path to its real form and returns an iterator over
// its ancestors. An unresolvable path yields an empty iterator.
func Parents(fsys vfs.FS, path string) *ParentIterator {
	resolved, err := fsys.RealPath(path)
	if err != nil {
		return &ParentIterator{done: true}
	}
	return ParentsOf(resolved)
}

// ParentsOf returns an ancestor iterator for an already-resolved path.
func ParentsOf(resolved string) *ParentIterator {
	return &ParentIterator{cur: resolved, remaining: MaxAscents}
}

// Next returns the next ancestor, or ok=false when the sequence is
// exhausted.
func (it *ParentIterator) Next() (string, bool) {
	if it.done || it.remaining <= 0 {
		it.done = true
		return "", false
	}
	it.remaining--

	parent, ok := Dirname(it.cur)
	if !ok || parent == it.cur || isRoot(parent) {
		it.done = true
		return "", false
	}
	it.cur = parent
	return parent, true
}

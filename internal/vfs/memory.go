package vfs

import (
	"fmt"
	"path"
	"strings"
	"sync"
)

// MemFS implements FS using an in-memory file system. It is primarily
// used for testing traversal and root discovery without touching disk.
//
// MemFS is safe for concurrent use. All paths use forward slashes and
// are rooted at "/".
type MemFS struct {
	mu       sync.RWMutex
	files    map[string]int64  // path -> size
	dirs     map[string]bool   // path -> exists
	links    map[string]string // symlink -> target
	execs    map[string]string // executable name -> path
	faulty   map[string]error  // path -> injected stat fault
	maxLinks int
}

// NewMemFS creates a new in-memory file system containing only the root
// directory.
func NewMemFS() *MemFS {
	return &MemFS{
		files:    make(map[string]int64),
		dirs:     map[string]bool{"/": true},
		links:    make(map[string]string),
		execs:    make(map[string]string),
		faulty:   make(map[string]error),
		maxLinks: 40,
	}
}

// Ensure MemFS implements FS.
var _ FS = (*MemFS)(nil)

// AddFile creates a file and all parent directories.
func (m *MemFS) AddFile(p string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	m.files[p] = size
	m.addParentsLocked(path.Dir(p))
}

// AddDir creates a directory and all parent directories.
func (m *MemFS) AddDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addParentsLocked(path.Clean(p))
}

// Symlink records a symbolic link from oldname to target. The target
// need not exist at creation time.
func (m *MemFS) Symlink(oldname, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldname = path.Clean(oldname)
	m.links[oldname] = path.Clean(target)
	m.addParentsLocked(path.Dir(oldname))
}

// RegisterExec makes an executable name resolvable via LookPath.
func (m *MemFS) RegisterExec(name, p string) {
	m.mu.Lock()
	m.execs[name] = p
	m.mu.Unlock()
}

// SetFault injects an I/O fault for a path. Subsequent Stat calls on the
// path return the error instead of a result.
func (m *MemFS) SetFault(p string, err error) {
	m.mu.Lock()
	m.faulty[path.Clean(p)] = err
	m.mu.Unlock()
}

func (m *MemFS) addParentsLocked(dir string) {
	for {
		m.dirs[dir] = true
		parent := path.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// Stat reports what a path refers to.
func (m *MemFS) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = path.Clean(p)
	if err, ok := m.faulty[p]; ok {
		return FileInfo{}, err
	}

	resolved, ok := m.resolveLocked(p)
	if !ok {
		return FileInfo{Path: p, Kind: KindNone}, nil
	}
	if size, ok := m.files[resolved]; ok {
		return FileInfo{Path: p, Kind: KindFile, Size: size}, nil
	}
	if m.dirs[resolved] {
		return FileInfo{Path: p, Kind: KindDir}, nil
	}
	return FileInfo{Path: p, Kind: KindNone}, nil
}

// RealPath resolves a path to its symlink-free form.
func (m *MemFS) RealPath(p string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resolved, ok := m.resolveLocked(path.Clean(p))
	if !ok {
		return "", fmt.Errorf("%s: %w", p, ErrNotExist)
	}
	return resolved, nil
}

// LookPath locates a registered executable.
func (m *MemFS) LookPath(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.execs[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: executable not found", name)
}

// resolveLocked follows symlinks component by component and reports the
// final path and whether it exists. Link chains are bounded to avoid
// loops.
func (m *MemFS) resolveLocked(p string) (string, bool) {
	hops := 0
	resolved := "/"

	for _, seg := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if seg == "" {
			continue
		}
		resolved = path.Join(resolved, seg)
		for {
			target, ok := m.links[resolved]
			if !ok {
				break
			}
			hops++
			if hops > m.maxLinks {
				return "", false
			}
			resolved = target
		}
	}

	if _, ok := m.files[resolved]; ok {
		return resolved, true
	}
	return resolved, m.dirs[resolved]
}

package root

import (
	"github.com/dshills/anchor/internal/pathutil"
	"github.com/dshills/anchor/internal/vfs"
)

// Predicate decides whether a directory is a project root. It must be
// pure, side-effect free, and total: it is called with directories that
// may not exist and must return false rather than fail.
type Predicate func(dir string) bool

// Finder resolves a starting path to a project root directory.
type Finder func(fsys vfs.FS, start string) (string, bool)

// SearchAncestors resolves start to its real form and returns the first
// directory accepted by pred, testing the starting path itself before
// ascending. It returns ok=false when the ancestor chain is exhausted
// or the starting path cannot be resolved.
func SearchAncestors(fsys vfs.FS, start string, pred Predicate) (string, bool) {
	resolved, err := fsys.RealPath(start)
	if err != nil {
		return "", false
	}

	if pred(resolved) {
		return resolved, true
	}

	it := pathutil.ParentsOf(resolved)
	for {
		dir, ok := it.Next()
		if !ok {
			return "", false
		}
		if pred(dir) {
			return dir, true
		}
	}
}

// MarkerPredicate builds a predicate that accepts a directory containing
// any of the given markers. Markers are checked in declaration order;
// the first one found wins.
func MarkerPredicate(fsys vfs.FS, markers ...string) Predicate {
	ms := make([]string, len(markers))
	copy(ms, markers)

	return func(dir string) bool {
		for _, m := range ms {
			k, err := pathutil.Kind(fsys, pathutil.Join(dir, m))
			if err == nil && k != vfs.KindNone {
				return true
			}
		}
		return false
	}
}

// Pattern returns a Finder that locates the nearest ancestor containing
// any of the given markers. Each call builds an independent Finder, so
// multiple resolvers with different marker sets can coexist.
func Pattern(markers ...string) Finder {
	ms := make([]string, len(markers))
	copy(ms, markers)

	return func(fsys vfs.FS, start string) (string, bool) {
		return SearchAncestors(fsys, start, MarkerPredicate(fsys, ms...))
	}
}

// Prebuilt finders for common root conventions.
var (
	vcsFinder        = Pattern(".git", ".hg", ".svn")
	manifestFinder   = Pattern("go.mod", "package.json", "Cargo.toml", "pyproject.toml")
	dependencyFinder = Pattern("node_modules", "vendor")
)

// FindVCSRoot locates the nearest ancestor containing a version-control
// marker directory.
func FindVCSRoot(fsys vfs.FS, start string) (string, bool) {
	return vcsFinder(fsys, start)
}

// FindManifestRoot locates the nearest ancestor containing a package
// manifest file.
func FindManifestRoot(fsys vfs.FS, start string) (string, bool) {
	return manifestFinder(fsys, start)
}

// FindDependencyRoot locates the nearest ancestor containing a
// dependency directory.
func FindDependencyRoot(fsys vfs.FS, start string) (string, bool) {
	return dependencyFinder(fsys, start)
}

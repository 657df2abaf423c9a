// Package root locates project root directories by walking the
// filesystem upward from a starting path.
//
// A root is recognized by a Predicate over candidate directories.
// Predicates are usually built from marker names (a lockfile, a
// metadata directory) via Pattern:
//
//	find := root.Pattern(".git")
//	dir, ok := find(fsys, "/proj/sub/a.txt")
//
// SearchAncestors tests the starting path itself first, then each
// ancestor in order of increasing distance, and accepts the first
// directory the predicate matches. The filesystem root is only ever
// tested when it is the starting path itself; it is never produced as
// an ascending candidate.
//
// "No root found" is a routine outcome, reported as ok=false, never as
// an error. Predicates must tolerate nonexistent or inaccessible
// directories.
package root

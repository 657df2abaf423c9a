package pathutil

import (
	"testing"

	"github.com/dshills/anchor/internal/vfs"
)

func TestDirname(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{"two levels", "/a/b", "/a", true},
		{"one level", "/a", "/", true},
		{"root", "/", "/", true},
		{"trailing separator", "/a/b/", "/a", true},
		{"deep", "/a/b/c/d", "/a/b/c", true},
		{"relative single segment", "a", "/", true},
		{"empty propagates absence", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Dirname(tt.path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Dirname(%q) = (%q, %v), want (%q, %v)", tt.path, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDirname_AscendsToRootAndStays(t *testing.T) {
	p := "/a/b/c/d/e"
	for i := 0; i < 20; i++ {
		next, ok := Dirname(p)
		if !ok {
			t.Fatalf("Dirname(%q) reported absence", p)
		}
		p = next
	}
	if p != "/" {
		t.Errorf("repeated Dirname ended at %q, want /", p)
	}
	if next, _ := Dirname(p); next != p {
		t.Errorf("Dirname(root) = %q, not idempotent", next)
	}
}

func TestDirname_TwoApplicationsAscendTwo(t *testing.T) {
	p := "/a/b/c/d"
	one, _ := Dirname(p)
	two, _ := Dirname(one)
	if two != "/a/b" {
		t.Errorf("Dirname(Dirname(%q)) = %q, want /a/b", p, two)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"simple", []string{"/a", "b"}, "/a/b"},
		{"collapses runs", []string{"/a/", "/b//c"}, "/a/b/c"},
		{"order preserved", []string{"b", "a"}, "b/a"},
		{"dot segments untouched", []string{"/a", "..", "b"}, "/a/../b"},
		{"single", []string{"/a"}, "/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.parts...); got != tt.want {
				t.Errorf("Join(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}

func TestKind(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/proj/go.mod", 1)
	fs.AddDir("/proj/.git")

	if k, err := Kind(fs, "/proj/go.mod"); err != nil || k != vfs.KindFile {
		t.Errorf("Kind(file) = (%v, %v)", k, err)
	}
	if k, err := Kind(fs, "/proj/.git"); err != nil || k != vfs.KindDir {
		t.Errorf("Kind(dir) = (%v, %v)", k, err)
	}
	if k, err := Kind(fs, "/missing"); err != nil || k != vfs.KindNone {
		t.Errorf("Kind(missing) = (%v, %v), want none without error", k, err)
	}

	if !IsFile(fs, "/proj/go.mod") || IsFile(fs, "/proj/.git") {
		t.Error("IsFile misclassified")
	}
	if !IsDir(fs, "/proj/.git") || IsDir(fs, "/proj/go.mod") {
		t.Error("IsDir misclassified")
	}
}

func TestTraverseParents_FindsMatch(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddDir("/proj/.git")
	fs.AddFile("/proj/sub/a.txt", 1)

	visited := []string{}
	dir, resolved, ok := TraverseParents(fs, "/proj/sub/a.txt", func(dir, _ string) bool {
		visited = append(visited, dir)
		return IsDir(fs, Join(dir, ".git"))
	})

	if !ok {
		t.Fatal("expected a match")
	}
	if dir != "/proj" {
		t.Errorf("dir = %q, want /proj", dir)
	}
	if resolved != "/proj/sub/a.txt" {
		t.Errorf("resolved = %q", resolved)
	}
	if len(visited) != 2 || visited[0] != "/proj/sub" || visited[1] != "/proj" {
		t.Errorf("visited = %v, want [/proj/sub /proj]", visited)
	}
}

func TestTraverseParents_NoMatchStopsBeforeRoot(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/a/b/c.txt", 1)

	visits := 0
	_, _, ok := TraverseParents(fs, "/a/b/c.txt", func(dir, _ string) bool {
		visits++
		if dir == "/" {
			t.Error("filesystem root must never be a candidate")
		}
		return false
	})

	if ok {
		t.Error("expected no match")
	}
	if visits != 2 {
		t.Errorf("visits = %d, want 2 (/a/b and /a)", visits)
	}
	if visits >= MaxAscents {
		t.Errorf("safety bound reached: %d visits", visits)
	}
}

func TestTraverseParents_UnresolvableStart(t *testing.T) {
	fs := vfs.NewMemFS()

	called := false
	_, _, ok := TraverseParents(fs, "/does/not/exist", func(_, _ string) bool {
		called = true
		return true
	})
	if ok || called {
		t.Error("unresolvable start must yield nothing without visiting")
	}
}

func TestTraverseParents_ResolvesSymlinks(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddDir("/data/proj/sub")
	fs.Symlink("/home/proj", "/data/proj")

	_, resolved, ok := TraverseParents(fs, "/home/proj/sub", func(dir, _ string) bool {
		return dir == "/data/proj"
	})
	if !ok {
		t.Fatal("expected match on the real path's ancestor")
	}
	if resolved != "/data/proj/sub" {
		t.Errorf("resolved = %q, want /data/proj/sub", resolved)
	}
}

func TestParents_Sequence(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddDir("/a/b/c")

	it := Parents(fs, "/a/b/c")
	want := []string{"/a/b", "/a"}
	for _, w := range want {
		got, ok := it.Next()
		if !ok || got != w {
			t.Fatalf("Next() = (%q, %v), want (%q, true)", got, ok, w)
		}
	}
	if got, ok := it.Next(); ok {
		t.Errorf("iterator yielded %q after exhaustion; root must never be yielded", got)
	}
	// Exhausted iterators stay exhausted.
	if _, ok := it.Next(); ok {
		t.Error("exhausted iterator restarted")
	}
}

func TestParents_DirectChildOfRoot(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddDir("/a")

	it := Parents(fs, "/a")
	if dir, ok := it.Next(); ok {
		t.Errorf("Next() = %q, want exhausted: only ancestor is the root", dir)
	}
}

func TestParents_UnresolvableStart(t *testing.T) {
	fs := vfs.NewMemFS()

	it := Parents(fs, "/missing")
	if _, ok := it.Next(); ok {
		t.Error("unresolvable start must yield an empty sequence")
	}
}

func TestParents_FreshPerCall(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddDir("/a/b")

	first := Parents(fs, "/a/b")
	first.Next()

	second := Parents(fs, "/a/b")
	if got, ok := second.Next(); !ok || got != "/a" {
		t.Errorf("fresh iterator Next() = (%q, %v), want (/a, true)", got, ok)
	}
}

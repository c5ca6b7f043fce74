package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/todoq/pkg/loader"
	"github.com/vanderheijden86/todoq/pkg/testutil"
)

func TestArchiveDone_MovesDoneTasks(t *testing.T) {
	path := testutil.TempTodoFile(t, "(A) keep me", "x 2024-01-02 done one", "keep too", "X done two")

	res, err := loader.ArchiveDone(path, "done.txt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Moved != 2 || res.Kept != 2 {
		t.Errorf("Expected 2 moved / 2 kept, got %+v", res)
	}
	if got := testutil.ReadFile(t, path); got != "(A) keep me\nkeep too" {
		t.Errorf("Unexpected todo content %q", got)
	}
	donePath := filepath.Join(filepath.Dir(path), "done.txt")
	if got := testutil.ReadFile(t, donePath); got != "x 2024-01-02 done one\nX done two\n" {
		t.Errorf("Unexpected done content %q", got)
	}
}

func TestArchiveDone_AppendsToExisting(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTodoFile(t, dir, "todo.txt", "open", "x new")
	testutil.WriteTodoFile(t, dir, "done.txt", "x old\n\n")

	if _, err := loader.ArchiveDone(path, "done.txt"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, "done.txt")); got != "x old\nx new\n" {
		t.Errorf("Unexpected done content %q", got)
	}
}

func TestArchiveDone_NothingDone(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTodoFile(t, dir, "todo.txt", "a", "b")

	res, err := loader.ArchiveDone(path, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Moved != 0 || res.Kept != 2 {
		t.Errorf("Unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, loader.DefaultDoneName)); !os.IsNotExist(err) {
		t.Errorf("Expected no done file, got err=%v", err)
	}
}

func TestArchiveDone_MissingTodo(t *testing.T) {
	if _, err := loader.ArchiveDone(filepath.Join(t.TempDir(), "nope.txt"), "done.txt"); err == nil {
		t.Fatal("Expected error for missing todo file")
	}
}

func TestDonePath(t *testing.T) {
	todo := filepath.Join("/data", "todo.txt")
	tests := []struct {
		name string
		want string
	}{
		{"done.txt", filepath.Join("/data", "done.txt")},
		{"  archive.txt ", filepath.Join("/data", "archive.txt")},
		{"../../etc/evil.txt", filepath.Join("/data", "evil.txt")},
		{"", filepath.Join("/data", "done.txt")},
	}
	for _, tt := range tests {
		if got := loader.DonePath(todo, tt.name); got != tt.want {
			t.Errorf("DonePath(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestSplitDone(t *testing.T) {
	keep, move := loader.SplitDone(loader.ParseText("a\nx b\nc\nx d"))
	testutil.AssertLines(t, keep, "a", "c")
	testutil.AssertLines(t, move, "x b", "x d")
}

package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/todoq/pkg/loader"
	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/testutil"
)

// =============================================================================
// FindTodoPath Tests
// =============================================================================

func TestFindTodoPath_NonExistentDirectory(t *testing.T) {
	t.Setenv(loader.TodoFileEnvVar, "")
	t.Setenv(loader.TodoDirEnvVar, "")
	_, err := loader.FindTodoPath("/nonexistent/path/to/todo")
	if err == nil {
		t.Fatal("Expected error for non-existent directory")
	}
	if !strings.Contains(err.Error(), "failed to read todo directory") {
		t.Errorf("Expected 'failed to read todo directory' error, got: %v", err)
	}
}

func TestFindTodoPath_EmptyDirectory(t *testing.T) {
	t.Setenv(loader.TodoFileEnvVar, "")
	t.Setenv(loader.TodoDirEnvVar, "")
	_, err := loader.FindTodoPath(t.TempDir())
	if !errors.Is(err, loader.ErrNoTodoFile) {
		t.Errorf("Expected ErrNoTodoFile, got: %v", err)
	}
}

func TestFindTodoPath_PrefersTodoTxt(t *testing.T) {
	t.Setenv(loader.TodoFileEnvVar, "")
	t.Setenv(loader.TodoDirEnvVar, "")
	dir := t.TempDir()
	testutil.WriteTodoFile(t, dir, "work.todo.txt", "a")
	testutil.WriteTodoFile(t, dir, "todo.txt", "b")

	path, err := loader.FindTodoPath(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if filepath.Base(path) != "todo.txt" {
		t.Errorf("Expected todo.txt, got %s", path)
	}
}

func TestFindTodoPath_FallsBackToSuffixMatch(t *testing.T) {
	t.Setenv(loader.TodoFileEnvVar, "")
	t.Setenv(loader.TodoDirEnvVar, "")
	dir := t.TempDir()
	testutil.WriteTodoFile(t, dir, "work.todo.txt", "a")
	testutil.WriteTodoFile(t, dir, "notes.txt", "b")

	path, err := loader.FindTodoPath(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if filepath.Base(path) != "work.todo.txt" {
		t.Errorf("Expected work.todo.txt, got %s", path)
	}
}

func TestFindTodoPathWithWarnings_ReportsBackups(t *testing.T) {
	t.Setenv(loader.TodoFileEnvVar, "")
	t.Setenv(loader.TodoDirEnvVar, "")
	dir := t.TempDir()
	testutil.WriteTodoFile(t, dir, "todo.txt", "a")
	testutil.WriteTodoFile(t, dir, "todo.txt.bak", "old")
	testutil.WriteTodoFile(t, dir, "todo.txt~", "older")

	var warnings []string
	path, err := loader.FindTodoPathWithWarnings(dir, func(msg string) {
		warnings = append(warnings, msg)
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if filepath.Base(path) != "todo.txt" {
		t.Errorf("Expected todo.txt, got %s", path)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "todo.txt.bak") {
		t.Errorf("Expected one backup warning, got %v", warnings)
	}
}

func TestFindTodoPath_TodoFileEnvWins(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "mine.txt")
	t.Setenv(loader.TodoFileEnvVar, custom)
	t.Setenv(loader.TodoDirEnvVar, t.TempDir())

	path, err := loader.FindTodoPath("/ignored")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if path != custom {
		t.Errorf("Expected TODO_FILE to be used: got %s, want %s", path, custom)
	}
}

// =============================================================================
// GetTodoDir Tests
// =============================================================================

func TestGetTodoDir_RespectsEnvVar(t *testing.T) {
	customDir := t.TempDir()
	t.Setenv(loader.TodoDirEnvVar, customDir)

	result, err := loader.GetTodoDir("/some/random/path")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != customDir {
		t.Errorf("Expected TODO_DIR to be used: got %s, want %s", result, customDir)
	}
}

func TestGetTodoDir_FallsBackToDir(t *testing.T) {
	t.Setenv(loader.TodoDirEnvVar, "")
	result, err := loader.GetTodoDir("/some/repo/path")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "/some/repo/path" {
		t.Errorf("Expected dir fallback, got %s", result)
	}
}

func TestGetTodoDir_EmptyUsesCwd(t *testing.T) {
	t.Setenv(loader.TodoDirEnvVar, "")
	cwd, _ := os.Getwd()
	result, err := loader.GetTodoDir("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != cwd {
		t.Errorf("Expected cwd %s, got %s", cwd, result)
	}
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParseText_MirrorsLines(t *testing.T) {
	tasks := loader.ParseText("(A) one\n\nx two\n")
	testutil.AssertLines(t, tasks, "(A) one", "", "x two", "")
}

func TestParseText_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"single",
		"a\nb\nc",
		"trailing\n",
		"\n\nblank lead",
		"crlf\r\nkept\r",
		testutil.NewDefault().Document(100),
	}
	for _, in := range inputs {
		if got := loader.FormatTasks(loader.ParseText(in)); got != in {
			t.Errorf("round trip changed %q into %q", in, got)
		}
	}
}

func TestParseTasks_MatchesParseText(t *testing.T) {
	in := "(B) first +p\n\nx done @c\nlast"
	tasks, err := loader.ParseTasks(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	testutil.AssertLines(t, tasks, testutil.Lines(loader.ParseText(in))...)
}

func TestParseTasks_StripsBOM(t *testing.T) {
	tasks, err := loader.ParseTasks(strings.NewReader("\ufeff(A) call mom\nnext"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Priority() != 'A' {
		t.Errorf("Expected priority A after BOM strip, got %q", tasks[0].Priority())
	}
}

func TestParseTasksWithOptions_SkipBlank(t *testing.T) {
	tasks, err := loader.ParseTasksWithOptions(strings.NewReader("a\n  \n\nb\n"), loader.ParseOptions{SkipBlank: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	testutil.AssertLines(t, tasks, "a", "b")
}

func TestParseTasksWithOptions_LineTooLong(t *testing.T) {
	var warnings []string
	opts := loader.ParseOptions{
		BufferSize:     16,
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	}
	in := "short\n" + strings.Repeat("x", 40) + "\nafter"
	tasks, err := loader.ParseTasksWithOptions(strings.NewReader(in), opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	testutil.AssertLines(t, tasks, "short", "after")
	if len(warnings) != 1 || !strings.Contains(warnings[0], "line 2") {
		t.Errorf("Expected a warning for line 2, got %v", warnings)
	}
}

func TestParseTasksWithOptions_TaskFilter(t *testing.T) {
	opts := loader.ParseOptions{TaskFilter: func(task *model.Task) bool { return !task.IsDone() }}
	tasks, err := loader.ParseTasksWithOptions(strings.NewReader("a\nx b\nc"), opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	testutil.AssertLines(t, tasks, "a", "c")
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestParseTasks_ReadError(t *testing.T) {
	if _, err := loader.ParseTasks(errReader{}); err == nil {
		t.Fatal("Expected read error")
	}
}

// =============================================================================
// File Tests
// =============================================================================

func TestLoadTasksFromFile_NonExistentFile(t *testing.T) {
	_, err := loader.LoadTasksFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, loader.ErrNoTodoFile) {
		t.Errorf("Expected ErrNoTodoFile, got: %v", err)
	}
}

func TestLoadTasksFromFile_Unicode(t *testing.T) {
	path := testutil.TempTodoFile(t, "(A) café @büro +übung", "日本語 タスク +プロジェクト")
	tasks, err := loader.LoadTasksFromFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	testutil.AssertTaskCount(t, tasks, 2)
	if !tasks[0].HasContext("büro") || !tasks[1].HasProject("プロジェクト") {
		t.Errorf("Unicode tags not parsed: %v / %v", tasks[0].Contexts(), tasks[1].Projects())
	}
}

func TestLoadTasks_UsesTodoDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTodoFile(t, dir, "todo.txt", "one", "two")
	t.Setenv(loader.TodoFileEnvVar, "")
	t.Setenv(loader.TodoDirEnvVar, dir)

	tasks, err := loader.LoadTasks("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	testutil.AssertLines(t, tasks, "one", "two")
}

func TestWriteTasks(t *testing.T) {
	path := testutil.TempTodoFile(t, "old")
	if err := loader.WriteTasks(path, loader.ParseText("new\nlines")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := testutil.ReadFile(t, path); got != "new\nlines" {
		t.Errorf("Expected rewritten content, got %q", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected temp file cleanup, found %d entries", len(entries))
	}
}

// =============================================================================
// TasksInRange Tests
// =============================================================================

func TestTasksInRange(t *testing.T) {
	text := "first\nsecond\nthird"
	tests := []struct {
		name       string
		start, end int
		want       []string
	}{
		{"cursor in first line", 2, 2, []string{"first"}},
		{"span two lines", 3, 8, []string{"first", "second"}},
		{"start of second line", 6, 6, []string{"second"}},
		{"whole text", 0, len(text), []string{"first", "second", "third"}},
		{"end at newline", 6, 12, []string{"second"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := loader.TasksInRange(text, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			testutil.AssertLines(t, tasks, tt.want...)
		})
	}
}

func TestTasksInRange_Invalid(t *testing.T) {
	for _, r := range [][2]int{{-1, 2}, {3, 2}, {0, 100}} {
		if _, err := loader.TasksInRange("abc", r[0], r[1]); !errors.Is(err, loader.ErrInvalidRange) {
			t.Errorf("range %v: expected ErrInvalidRange, got %v", r, err)
		}
	}
}

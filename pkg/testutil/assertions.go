package testutil

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/todoq/pkg/model"
)

// AssertTaskCount verifies the expected number of tasks.
func AssertTaskCount(t *testing.T, tasks []*model.Task, expected int) {
	t.Helper()
	if len(tasks) != expected {
		t.Errorf("expected %d tasks, got %d", expected, len(tasks))
	}
}

// AssertLines verifies the raw lines of tasks, in order.
func AssertLines(t *testing.T, tasks []*model.Task, expected ...string) {
	t.Helper()
	got := Lines(tasks)
	if len(got) == 0 && len(expected) == 0 {
		return
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("line mismatch:\nexpected: %q\nactual:   %q", expected, got)
	}
}

// AssertDoneLast verifies that no open task follows a done task.
func AssertDoneLast(t *testing.T, tasks []*model.Task) {
	t.Helper()
	seenDone := false
	for i, task := range tasks {
		if task.IsDone() {
			seenDone = true
		} else if seenDone {
			t.Errorf("open task %d (%q) sorted after a done task", i, task.Line())
			return
		}
	}
}

// AssertJSONEqual compares two values after JSON encoding.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}

// TempDir helpers

// WriteTodoFile writes lines joined by newlines to name inside dir and
// returns the path.
func WriteTodoFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		t.Fatalf("failed to write todo file: %v", err)
	}
	return path
}

// TempTodoFile creates todo.txt in a fresh temp dir and returns its path.
func TempTodoFile(t *testing.T, lines ...string) string {
	t.Helper()
	return WriteTodoFile(t, t.TempDir(), "todo.txt", lines...)
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// Lines returns the raw lines of tasks.
func Lines(tasks []*model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Line()
	}
	return out
}

package testutil

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/todoq/pkg/model"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewDefault().Lines(50)
	b := NewDefault().Lines(50)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical output for the same seed")
	}
}

func TestGeneratorLinesParse(t *testing.T) {
	gen := NewDefault()
	for _, line := range gen.Lines(200) {
		task := model.NewTask(line)
		if strings.HasPrefix(line, "x ") && !task.IsDone() {
			t.Errorf("expected %q to be done", line)
		}
		if strings.HasPrefix(line, "(") && !task.HasPriority() {
			t.Errorf("expected %q to carry a priority", line)
		}
		if strings.Contains(line, "due:") && task.DueDate() == "" {
			t.Errorf("expected %q to carry a due date", line)
		}
		if task.Description() == "" {
			t.Errorf("expected %q to have a description", line)
		}
	}
}

func TestGeneratorRates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DoneRatio = 0
	cfg.PriorityRate = 1
	tasks := New(cfg).Tasks(100)
	AssertTaskCount(t, tasks, 100)
	for _, task := range tasks {
		if task.IsDone() {
			t.Fatalf("expected no done tasks, got %q", task.Line())
		}
		if !task.HasPriority() {
			t.Fatalf("expected a priority on %q", task.Line())
		}
	}
}

func TestDocumentJoinsLines(t *testing.T) {
	doc := NewDefault().Document(5)
	if n := strings.Count(doc, "\n"); n != 4 {
		t.Errorf("expected 4 newlines, got %d", n)
	}
	if strings.HasSuffix(doc, "\n") {
		t.Error("expected no trailing newline")
	}
}

func TestTempTodoFile(t *testing.T) {
	path := TempTodoFile(t, "a", "b")
	if got := ReadFile(t, path); got != "a\nb" {
		t.Errorf("expected %q, got %q", "a\nb", got)
	}
}

func TestGoldenFile(t *testing.T) {
	dir := t.TempDir()
	WriteTodoFile(t, dir, "out.golden", "line one", "line two")
	NewGoldenFile(t, dir, "out.golden").Assert("line one\nline two")
}

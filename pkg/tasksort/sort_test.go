package tasksort

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vanderheijden86/todoq/pkg/model"
)

func lines(tasks []*model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Line()
	}
	return out
}

func TestSortPriority(t *testing.T) {
	in := model.NewTasks([]string{
		"x (A) done first",
		"(B) second due:2024-05-01",
		"plain",
		"(A) first due:2024-05-01",
	})

	got := lines(Sorted(in, ByPriority, false))
	want := []string{
		"(A) first due:2024-05-01",
		"(B) second due:2024-05-01",
		"plain",
		"x (A) done first",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ascending:\nexpected %q\ngot      %q", want, got)
	}

	got = lines(Sorted(in, ByPriority, true))
	want = []string{
		"plain",
		"(B) second due:2024-05-01",
		"(A) first due:2024-05-01",
		"x (A) done first",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("descending:\nexpected %q\ngot      %q", want, got)
	}
}

func TestCompareDoneIgnoresDescending(t *testing.T) {
	open := model.NewTask("(Z) open")
	done := model.NewTask("x (A) done")
	for _, desc := range []bool{false, true} {
		c := Comparator{OrderBy: ByPriority, Descending: desc}
		if c.Compare(open, done) >= 0 {
			t.Errorf("descending=%v: expected open before done", desc)
		}
		if c.Compare(done, open) <= 0 {
			t.Errorf("descending=%v: expected done after open", desc)
		}
	}
}

func TestCompareKeys(t *testing.T) {
	tests := []struct {
		name    string
		orderBy OrderBy
		x, y    string
		want    int
	}{
		{"context lists", ByContext, "a @b @a", "c @a @c", -1},
		{"context empty last", ByContext, "a", "b @z", 1},
		{"project", ByProject, "a +zeta", "b +alpha", 1},
		{"creation date", ByCreationDate, "2024-01-02 a", "2024-01-01 b", 1},
		{"creation date missing last", ByCreationDate, "a", "2024-01-01 b", 1},
		{"due date", ByDueDate, "a due:2024-01-01", "b due:2024-02-01", -1},
		{"description case-insensitive", ByDescription, "Apple", "banana", -1},
		{"description trims", ByDescription, "(A)  zed", "(B) Zed", -1},
		{"raw line", ByLine, "b", "a", 1},
		{"unknown key falls back", OrderBy("nope"), "(B) a", "(A) b", 1},
		{"due fallback", ByDescription, "same due:2024-03-01", "same due:2024-02-01", 1},
		{"priority fallback", ByDescription, "(C) same", "(A) same", 1},
		{"residual tie", ByDescription, "same", "same", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Comparator{OrderBy: tt.orderBy}
			got := c.Compare(model.NewTask(tt.x), model.NewTask(tt.y))
			if sign(got) != tt.want {
				t.Errorf("expected sign %d, got %d", tt.want, got)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestSortStable(t *testing.T) {
	in := model.NewTasks([]string{"same one", "same two", "same three"})
	got := lines(Sorted(in, ByPriority, false))
	want := []string{"same one", "same two", "same three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected input order %q, got %q", want, got)
	}
}

func TestSortedLeavesInput(t *testing.T) {
	in := model.NewTasks([]string{"(B) b", "(A) a"})
	_ = Sorted(in, ByPriority, false)
	if in[0].Line() != "(B) b" {
		t.Errorf("expected input untouched, got %q first", in[0].Line())
	}
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		in   string
		want OrderBy
	}{
		{"priority", ByPriority},
		{" Due_Date ", ByDueDate},
		{"raw_line", ByLine},
		{"line_natural", ByLine},
	}
	for _, tt := range tests {
		got, err := ParseOrderBy(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseOrderBy(%q) = %q, %v; expected %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseOrderBy("size"); !errors.Is(err, ErrUnknownOrder) {
		t.Errorf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestOrderByNext(t *testing.T) {
	if ByPriority.Next() != ByContext {
		t.Errorf("expected context after priority, got %s", ByPriority.Next())
	}
	if ByLine.Next() != ByPriority {
		t.Errorf("expected wrap to priority, got %s", ByLine.Next())
	}
}

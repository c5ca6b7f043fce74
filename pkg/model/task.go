// Package model defines the todo.txt task record.
//
// A Task wraps one raw line. Every structured field is derived from that line
// on first access and cached; the line itself is never modified.
package model

import (
	"slices"
	"sync"
	"time"
)

// DueState classifies a task's due date relative to today.
type DueState int

const (
	DueNone DueState = iota
	DueOverdue
	DueToday
	DueFuture
)

// String returns the lower-case name of the state.
func (s DueState) String() string {
	switch s {
	case DueOverdue:
		return "overdue"
	case DueToday:
		return "today"
	case DueFuture:
		return "future"
	default:
		return "none"
	}
}

// now is the clock used for due status. Tests may replace it.
var now = time.Now

// Today returns the current local date as YYYY-MM-DD.
func Today() string {
	return now().Format(DateLayout)
}

// lazy holds a value computed at most once.
type lazy[T any] struct {
	once sync.Once
	v    T
}

func (l *lazy[T]) get(compute func() T) T {
	l.once.Do(func() { l.v = compute() })
	return l.v
}

// Task is the structured view of one todo.txt line.
// Tasks must not be copied after first use; pass *Task.
type Task struct {
	line string

	done           lazy[bool]
	priority       lazy[rune]
	contexts       lazy[[]string]
	projects       lazy[[]string]
	creationDate   lazy[string]
	completionDate lazy[string]
	dueDate        lazy[string]
	description    lazy[string]
	keyValues      lazy[[]KeyValue]
	dueStatus      lazy[DueState]
}

// NewTask wraps a raw line. Nothing is parsed until a field is read.
func NewTask(line string) *Task {
	return &Task{line: line}
}

// Line returns the raw line, unchanged.
func (t *Task) Line() string {
	return t.line
}

// IsDone reports whether the line starts with the done marker.
func (t *Task) IsDone() bool {
	return t.done.get(func() bool { return ParseDone(t.line) })
}

// Priority returns the upper-case priority letter or PriorityNone.
func (t *Task) Priority() rune {
	return t.priority.get(func() rune { return ParsePriority(t.line) })
}

// HasPriority reports whether a priority letter is set.
func (t *Task) HasPriority() bool {
	return t.Priority() != PriorityNone
}

// Contexts returns the task's @contexts in line order.
func (t *Task) Contexts() []string {
	return slices.Clone(t.contextList())
}

// HasContext reports whether the task carries @name.
func (t *Task) HasContext(name string) bool {
	return slices.Contains(t.contextList(), name)
}

func (t *Task) contextList() []string {
	return t.contexts.get(func() []string { return ParseContexts(t.line) })
}

// Projects returns the task's +projects in line order.
func (t *Task) Projects() []string {
	return slices.Clone(t.projectList())
}

// HasProject reports whether the task carries +name.
func (t *Task) HasProject(name string) bool {
	return slices.Contains(t.projectList(), name)
}

func (t *Task) projectList() []string {
	return t.projects.get(func() []string { return ParseProjects(t.line) })
}

// CreationDate returns the creation date or "".
func (t *Task) CreationDate() string {
	return t.creationDate.get(func() string { return ParseCreationDate(t.line) })
}

// CompletionDate returns the completion date or "".
func (t *Task) CompletionDate() string {
	return t.completionDate.get(func() string { return ParseCompletionDate(t.line) })
}

// DueDate returns the due:YYYY-MM-DD value or "".
func (t *Task) DueDate() string {
	return t.dueDate.get(func() string { return ParseDueDate(t.line) })
}

// Description returns the line with all structured tokens removed.
func (t *Task) Description() string {
	return t.description.get(func() string { return ParseDescription(t.line) })
}

// KeyValues returns the key:value pairs in line order.
func (t *Task) KeyValues() []KeyValue {
	return slices.Clone(t.keyValues.get(func() []KeyValue { return ParseKeyValues(t.line) }))
}

// Value returns the value of the last key:value pair with the given key.
func (t *Task) Value(key string) (string, bool) {
	pairs := t.keyValues.get(func() []KeyValue { return ParseKeyValues(t.line) })
	for i := len(pairs) - 1; i >= 0; i-- {
		if pairs[i].Key == key {
			return pairs[i].Value, true
		}
	}
	return "", false
}

// DueStatus classifies the due date against the date of first access.
func (t *Task) DueStatus() DueState {
	return t.dueStatus.get(func() DueState { return DueStatusOn(t.DueDate(), Today()) })
}

// NewTasks wraps each line in a Task, preserving order.
func NewTasks(lines []string) []*Task {
	tasks := make([]*Task, len(lines))
	for i, line := range lines {
		tasks[i] = NewTask(line)
	}
	return tasks
}

package facet

import (
	"sort"

	"github.com/vanderheijden86/todoq/pkg/model"
)

// Summary holds document level task counts.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// Summarize counts tasks by completion and overdue state. Overdue counts
// done tasks too.
func Summarize(tasks []*model.Task) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsDone() {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.DueStatus() == model.DueOverdue {
			s.Overdue++
		}
	}
	return s
}

// Projects returns the sorted distinct projects of all tasks, done included.
func Projects(tasks []*model.Task) []string {
	return distinct(tasks, (*model.Task).Projects)
}

// Contexts returns the sorted distinct contexts of all tasks, done included.
func Contexts(tasks []*model.Task) []string {
	return distinct(tasks, (*model.Task).Contexts)
}

// Priorities returns the sorted distinct priorities, including
// model.PriorityNone when some task has none.
func Priorities(tasks []*model.Task) []rune {
	seen := make(map[rune]bool)
	for _, t := range tasks {
		seen[t.Priority()] = true
	}
	out := make([]rune, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DueStates returns the distinct due states present, in enum order.
func DueStates(tasks []*model.Task) []model.DueState {
	var seen [4]bool
	for _, t := range tasks {
		seen[t.DueStatus()] = true
	}
	var out []model.DueState
	for s, ok := range seen {
		if ok {
			out = append(out, model.DueState(s))
		}
	}
	return out
}

func distinct(tasks []*model.Task, get func(*model.Task) []string) []string {
	seen := make(map[string]bool)
	for _, t := range tasks {
		for _, v := range get(t) {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

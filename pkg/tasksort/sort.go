// Package tasksort orders tasks by a primary key with a fixed tie-break chain.
package tasksort

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/vanderheijden86/todoq/pkg/metrics"
	"github.com/vanderheijden86/todoq/pkg/model"
)

// OrderBy names the primary sort key.
type OrderBy string

const (
	ByPriority     OrderBy = "priority"
	ByContext      OrderBy = "context"
	ByProject      OrderBy = "project"
	ByCreationDate OrderBy = "creation_date"
	ByDueDate      OrderBy = "due_date"
	ByDescription  OrderBy = "description"
	ByLine         OrderBy = "raw_line"

	// byLineNatural is the legacy name of ByLine.
	byLineNatural OrderBy = "line_natural"
)

// Keys lists the accepted sort keys in display order.
var Keys = []OrderBy{ByPriority, ByContext, ByProject, ByCreationDate, ByDueDate, ByDescription, ByLine}

// ErrUnknownOrder is returned by ParseOrderBy for unrecognised keys.
var ErrUnknownOrder = fmt.Errorf("unknown sort key")

// ParseOrderBy resolves a sort key name, accepting line_natural for raw_line.
func ParseOrderBy(s string) (OrderBy, error) {
	key := OrderBy(strings.ToLower(strings.TrimSpace(s)))
	if key == byLineNatural {
		return ByLine, nil
	}
	if slices.Contains(Keys, key) {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOrder, s)
}

// Next returns the key after o in Keys, wrapping around.
func (o OrderBy) Next() OrderBy {
	i := slices.Index(Keys, o)
	return Keys[(i+1)%len(Keys)]
}

// Comparator compares tasks. Open tasks always precede done tasks; the
// Descending flag only reverses the remaining comparison.
type Comparator struct {
	OrderBy    OrderBy
	Descending bool
}

// Compare returns a negative number when x sorts before y, positive when
// after, and zero when no key separates them.
func (c Comparator) Compare(x, y *model.Task) int {
	if d := cmp.Compare(doneRank(x), doneRank(y)); d != 0 {
		return d
	}

	diff := c.primary(x, y)
	if diff == 0 {
		diff = compareStrings(x.DueDate(), y.DueDate())
	}
	if diff == 0 {
		diff = compareStrings(string(x.Priority()), string(y.Priority()))
	}
	if c.Descending {
		diff = -diff
	}
	return diff
}

func (c Comparator) primary(x, y *model.Task) int {
	switch c.OrderBy {
	case ByPriority:
		return compareStrings(string(x.Priority()), string(y.Priority()))
	case ByContext:
		return compareLists(x.Contexts(), y.Contexts())
	case ByProject:
		return compareLists(x.Projects(), y.Projects())
	case ByCreationDate:
		return compareStrings(x.CreationDate(), y.CreationDate())
	case ByDueDate:
		return compareStrings(x.DueDate(), y.DueDate())
	case ByDescription:
		return compareStrings(x.Description(), y.Description())
	case ByLine, byLineNatural:
		return compareStrings(x.Line(), y.Line())
	default:
		return 0
	}
}

func doneRank(t *model.Task) int {
	if t.IsDone() {
		return 1
	}
	return 0
}

// compareStrings puts empty values last and otherwise compares trimmed,
// lower-cased values.
func compareStrings(x, y string) int {
	if d := cmp.Compare(emptyRank(x), emptyRank(y)); d != 0 {
		return d
	}
	return strings.Compare(
		strings.ToLower(strings.TrimSpace(x)),
		strings.ToLower(strings.TrimSpace(y)),
	)
}

func emptyRank(s string) int {
	if s == "" {
		return 1
	}
	return 0
}

// compareLists sorts each list and compares the concatenations.
func compareLists(x, y []string) int {
	return compareStrings(joinSorted(x), joinSorted(y))
}

func joinSorted(vals []string) string {
	s := slices.Clone(vals)
	slices.Sort(s)
	return strings.Join(s, "")
}

// Sort orders tasks in place. Ties keep their input order.
func Sort(tasks []*model.Task, orderBy OrderBy, descending bool) {
	defer metrics.Timer(metrics.Sort)()
	c := Comparator{OrderBy: orderBy, Descending: descending}
	slices.SortStableFunc(tasks, c.Compare)
}

// Sorted returns a sorted copy of tasks.
func Sorted(tasks []*model.Task, orderBy OrderBy, descending bool) []*model.Task {
	out := slices.Clone(tasks)
	Sort(out, orderBy, descending)
	return out
}

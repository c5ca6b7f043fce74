package query

import (
	"fmt"
	"strings"
)

// Dimension is one facet axis a query can be built over.
type Dimension int

const (
	Project Dimension = iota
	Context
	Priority
	Due
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{Project, Context, Priority, Due}

func (d Dimension) String() string {
	switch d {
	case Project:
		return "project"
	case Context:
		return "context"
	case Priority:
		return "priority"
	case Due:
		return "due"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// ParseDimension accepts the names returned by Dimension.String.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project", "projects", "+":
		return Project, nil
	case "context", "contexts", "@":
		return Context, nil
	case "priority", "pri":
		return Priority, nil
	case "due":
		return Due, nil
	}
	return 0, fmt.Errorf("unknown dimension %q (want project, context, priority or due)", s)
}

// Prefix is prepended to a facet value to form its query element.
func (d Dimension) Prefix() string {
	switch d {
	case Project:
		return "+"
	case Context:
		return "@"
	case Priority:
		return ElemPriorityAny + ":"
	default:
		return ""
	}
}

// NoneToken is the element matching tasks without a value in this dimension.
func (d Dimension) NoneToken() string {
	switch d {
	case Project:
		return "!" + ElemProjectAny
	case Context:
		return "!" + ElemContextAny
	case Priority:
		return "!" + ElemPriorityAny
	default:
		return "!" + ElemDueAny
	}
}

// Key is one selected facet value. None selects tasks lacking the dimension.
type Key struct {
	Value string `json:"value,omitempty"`
	None  bool   `json:"none,omitempty"`
}

// Join combines selected keys.
type Join int

const (
	JoinAnd Join = iota
	JoinOr
)

func (j Join) separator() string {
	if j == JoinOr {
		return " | "
	}
	return " & "
}

type buildOptions struct {
	includeDone bool
}

// BuildOption configures MakeQuery.
type BuildOption func(*buildOptions)

// WithDone keeps completed tasks in the result by omitting the "& !done" suffix.
// Use it when the caller filters on done status itself.
func WithDone() BuildOption {
	return func(o *buildOptions) {
		o.includeDone = true
	}
}

// MakeQuery builds a query selecting keys in dimension d.
// Completed tasks are excluded unless WithDone is given.
func MakeQuery(keys []Key, join Join, d Dimension, opts ...BuildOption) string {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k.None {
			parts = append(parts, d.NoneToken())
		} else {
			parts = append(parts, d.Prefix()+k.Value)
		}
	}
	q := strings.Join(parts, join.separator())
	if !o.includeDone {
		q += " & !" + ElemDone
	}
	return q
}

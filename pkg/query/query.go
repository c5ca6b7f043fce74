// Package query implements the todo.txt filter language.
//
// A query is a whitespace separated list of elements and the operators
// ! & | ( ). Each element is reduced to true or false against one task and the
// resulting symbol sequence is evaluated strictly left to right; see
// EvaluateSymbols.
package query

import (
	"strings"

	"github.com/vanderheijden86/todoq/pkg/debug"
	"github.com/vanderheijden86/todoq/pkg/metrics"
	"github.com/vanderheijden86/todoq/pkg/model"
)

// Reserved elements.
const (
	ElemPriorityAny = "pri"
	ElemDueToday    = "due="
	ElemDueOverdue  = "due<"
	ElemDueFuture   = "due>"
	ElemDueAny      = "due"
	ElemDone        = "done"
	ElemContextAny  = "@"
	ElemProjectAny  = "+"
)

// preprocess pads the query and splits !, ( and ) off their neighbours.
func preprocess(q string) string {
	s := " " + q + " "
	s = strings.ReplaceAll(s, " !", " ! ")
	s = strings.ReplaceAll(s, " (", " ( ")
	s = strings.ReplaceAll(s, ") ", " ) ")
	return s
}

func isOperator(c byte) bool {
	return c == '!' || c == '|' || c == '&' || c == '(' || c == ')'
}

// Tokens splits a query into operator and element tokens.
func Tokens(q string) []string {
	parts := strings.Split(preprocess(q), " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Reduce evaluates every element of q against t and returns the flat
// symbol sequence handed to the stack machine.
func Reduce(t *model.Task, q string) []Symbol {
	tokens := Tokens(q)
	syms := make([]Symbol, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) == 1 && isOperator(tok[0]) {
			sym, _ := symbolFor(tok[0])
			syms = append(syms, sym)
			continue
		}
		syms = append(syms, valueOf(MatchElement(t, tok)))
	}
	return syms
}

// Expression returns the reduced query as a string such as "T&!F".
func Expression(t *model.Task, q string) string {
	var sb strings.Builder
	for _, sym := range Reduce(t, q) {
		sb.WriteString(sym.String())
	}
	return sb.String()
}

// MatchElement evaluates one element against a task.
func MatchElement(t *model.Task, elem string) bool {
	switch {
	case elem == ElemPriorityAny:
		return t.HasPriority()
	case len(elem) == 5 && strings.HasPrefix(elem, ElemPriorityAny) && elem[3] == ':':
		return t.Priority() == rune(elem[4])
	case elem == ElemDueToday:
		return t.DueStatus() == model.DueToday
	case elem == ElemDueOverdue:
		return t.DueStatus() == model.DueOverdue
	case elem == ElemDueFuture:
		return t.DueStatus() == model.DueFuture
	case elem == ElemDueAny:
		return t.DueStatus() != model.DueNone
	case elem == ElemDone:
		return t.IsDone()
	case elem == ElemContextAny:
		return len(t.Contexts()) > 0
	case elem == ElemProjectAny:
		return len(t.Projects()) > 0
	case strings.HasPrefix(elem, "@"):
		return t.HasContext(elem[1:])
	case strings.HasPrefix(elem, "+"):
		return t.HasProject(elem[1:])
	default:
		return strings.Contains(strings.ToLower(t.Line()), strings.ToLower(elem))
	}
}

// Eval evaluates q against t, reporting malformed queries as errors.
func Eval(t *model.Task, q string) (bool, error) {
	return EvaluateSymbols(Reduce(t, q))
}

// Match reports whether t satisfies q. A malformed query matches nothing.
func Match(t *model.Task, q string) bool {
	ok, err := Eval(t, q)
	if err != nil {
		debug.Log("query %q rejected for %q: %v", q, t.Line(), err)
		return false
	}
	return ok
}

// Filter returns the tasks matching q, preserving order.
func Filter(tasks []*model.Task, q string) []*model.Task {
	defer metrics.Timer(metrics.QueryMatch)()
	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Match(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// Validate reports whether q is well formed, independent of any task.
// Elements are evaluated against an empty task; the shape of the
// expression does not depend on their values.
func Validate(q string) error {
	_, err := Eval(model.NewTask(""), q)
	return err
}

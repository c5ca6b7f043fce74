// Package facet counts tasks per project, context, priority and due state.
package facet

import (
	"slices"
	"sort"

	"github.com/vanderheijden86/todoq/pkg/metrics"
	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/query"
)

// NoneLabel labels the bucket of tasks without a value.
const NoneLabel = "-"

// Facet is one bucket of a dimension.
type Facet struct {
	Label string    `json:"label"`
	Count int       `json:"count"`
	Key   query.Key `json:"key"`
	// Query is the element selecting this bucket; empty for the none bucket.
	Query string `json:"query,omitempty"`
}

// Aggregate buckets tasks along d.
//
// Project, context and priority count open tasks only: the none bucket comes
// first when non-empty, then each distinct value in ascending order. Due
// counts every task and always returns Future, Today, Overdue, None.
func Aggregate(tasks []*model.Task, d query.Dimension) []Facet {
	defer metrics.Timer(metrics.FacetAggregate)()
	if d == query.Due {
		return dueFacets(tasks)
	}
	return valueFacets(tasks, d)
}

// Values returns the distinct values of t in dimension d, in line order.
// Priority yields the letter; due yields the due query element.
func Values(t *model.Task, d query.Dimension) []string {
	var vals []string
	switch d {
	case query.Project:
		vals = t.Projects()
	case query.Context:
		vals = t.Contexts()
	case query.Priority:
		if t.HasPriority() {
			vals = []string{string(t.Priority())}
		}
	case query.Due:
		if e := dueElement(t.DueStatus()); e != "" {
			vals = []string{e}
		}
	}
	return dedupe(vals)
}

func valueFacets(tasks []*model.Task, d query.Dimension) []Facet {
	counts := make(map[string]int)
	none := 0
	for _, t := range tasks {
		if t.IsDone() {
			continue
		}
		vals := Values(t, d)
		if len(vals) == 0 {
			none++
			continue
		}
		for _, v := range vals {
			counts[v]++
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Facet, 0, len(keys)+1)
	if none > 0 {
		out = append(out, Facet{Label: NoneLabel, Count: none, Key: query.Key{None: true}})
	}
	for _, k := range keys {
		out = append(out, Facet{
			Label: k,
			Count: counts[k],
			Key:   query.Key{Value: k},
			Query: d.Prefix() + k,
		})
	}
	return out
}

var dueOrder = []struct {
	state model.DueState
	label string
}{
	{model.DueFuture, "Future"},
	{model.DueToday, "Today"},
	{model.DueOverdue, "Overdue"},
	{model.DueNone, NoneLabel},
}

func dueElement(s model.DueState) string {
	switch s {
	case model.DueFuture:
		return query.ElemDueFuture
	case model.DueToday:
		return query.ElemDueToday
	case model.DueOverdue:
		return query.ElemDueOverdue
	default:
		return ""
	}
}

func dueFacets(tasks []*model.Task) []Facet {
	var counts [4]int
	for _, t := range tasks {
		counts[t.DueStatus()]++
	}
	out := make([]Facet, 0, len(dueOrder))
	for _, b := range dueOrder {
		f := Facet{Label: b.label, Count: counts[b.state]}
		if e := dueElement(b.state); e != "" {
			f.Key = query.Key{Value: e}
			f.Query = e
		} else {
			f.Key = query.Key{None: true}
		}
		out = append(out, f)
	}
	return out
}

func dedupe(vals []string) []string {
	if len(vals) < 2 {
		return vals
	}
	out := vals[:0:0]
	for _, v := range vals {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Keys returns the query keys of the given facets, for query.MakeQuery.
func Keys(facets []Facet) []query.Key {
	keys := make([]query.Key, len(facets))
	for i, f := range facets {
		keys[i] = f.Key
	}
	return keys
}

package main

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/todoq/pkg/export"
	"github.com/vanderheijden86/todoq/pkg/facet"
	"github.com/vanderheijden86/todoq/pkg/metrics"
	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/query"
	"github.com/vanderheijden86/todoq/pkg/tasksort"
)

// maxLabelWidth caps the label column of facet tables.
const maxLabelWidth = 40

type output struct {
	w    io.Writer
	json bool
}

func writeJSON(w io.Writer, v any) error {
	return export.WriteJSON(w, v)
}

// tasks prints one raw line per task, or the JSON export document.
func (o output) tasks(tasks []*model.Task, source, q string, orderBy tasksort.OrderBy) error {
	if o.json {
		return writeJSON(o.w, export.NewDocument(tasks, export.DocumentOptions{
			Source: source,
			Query:  q,
			Sort:   string(orderBy),
		}))
	}
	for _, t := range tasks {
		if _, err := fmt.Fprintln(o.w, t.Line()); err != nil {
			return err
		}
	}
	return nil
}

// facets prints label/count/query rows and optionally writes a chart.
// table is false when only the chart was requested.
func (o output) facets(tasks []*model.Task, d query.Dimension, snapshot string, table bool) error {
	facets := facet.Aggregate(tasks, d)
	if snapshot != "" {
		err := export.SaveFacetChart(export.ChartOptions{
			Path:      snapshot,
			Dimension: d,
			Facets:    facets,
			Summary:   facet.Summarize(tasks),
		})
		if err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
	}
	if !table {
		return nil
	}
	if o.json {
		return writeJSON(o.w, facets)
	}

	width := 0
	for _, f := range facets {
		width = max(width, min(runewidth.StringWidth(f.Label), maxLabelWidth))
	}
	for _, f := range facets {
		label := runewidth.FillRight(runewidth.Truncate(f.Label, maxLabelWidth, "…"), width)
		if _, err := fmt.Fprintf(o.w, "%s  %5d  %s\n", label, f.Count, f.Query); err != nil {
			return err
		}
	}
	return nil
}

func (o output) stats(tasks []*model.Task) error {
	s := facet.Summarize(tasks)
	if o.json {
		return writeJSON(o.w, s)
	}
	_, err := fmt.Fprintf(o.w, "total:     %d\ncompleted: %d\npending:   %d\noverdue:   %d\n",
		s.Total, s.Completed, s.Pending, s.Overdue)
	return err
}

func writeMetrics(w io.Writer) error {
	data, err := json.MarshalIndent(metrics.AllTimingStats(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

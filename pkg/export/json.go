// Package export renders filtered task lists and facet counts for other tools.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/todoq/pkg/facet"
	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/query"
)

// Task is the JSON form of one todo.txt line.
type Task struct {
	Line           string            `json:"line"`
	Done           bool              `json:"done"`
	Priority       string            `json:"priority,omitempty"`
	Projects       []string          `json:"projects,omitempty"`
	Contexts       []string          `json:"contexts,omitempty"`
	CreationDate   string            `json:"creation_date,omitempty"`
	CompletionDate string            `json:"completion_date,omitempty"`
	DueDate        string            `json:"due_date,omitempty"`
	Due            string            `json:"due"`
	Description    string            `json:"description"`
	Values         map[string]string `json:"values,omitempty"`
}

// Document is the top level JSON export.
type Document struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Source      string                   `json:"source,omitempty"`
	Query       string                   `json:"query,omitempty"`
	Sort        string                   `json:"sort,omitempty"`
	Summary     facet.Summary            `json:"summary"`
	Facets      map[string][]facet.Facet `json:"facets,omitempty"`
	Tasks       []Task                   `json:"tasks"`
}

// DocumentOptions describes how the task list was produced.
type DocumentOptions struct {
	Source string
	Query  string
	Sort   string
	// Dimensions to aggregate over the exported tasks. Nil means none.
	Dimensions []query.Dimension
}

// NewTask converts a model task to its JSON form.
func NewTask(t *model.Task) Task {
	out := Task{
		Line:           t.Line(),
		Done:           t.IsDone(),
		Projects:       t.Projects(),
		Contexts:       t.Contexts(),
		CreationDate:   t.CreationDate(),
		CompletionDate: t.CompletionDate(),
		DueDate:        t.DueDate(),
		Due:            t.DueStatus().String(),
		Description:    t.Description(),
	}
	if t.HasPriority() {
		out.Priority = string(t.Priority())
	}
	if kvs := t.KeyValues(); len(kvs) > 0 {
		out.Values = make(map[string]string, len(kvs))
		for _, kv := range kvs {
			out.Values[kv.Key] = kv.Value
		}
	}
	return out
}

// NewDocument builds an export document from already filtered and sorted tasks.
func NewDocument(tasks []*model.Task, opts DocumentOptions) Document {
	doc := Document{
		GeneratedAt: time.Now().UTC(),
		Source:      opts.Source,
		Query:       opts.Query,
		Sort:        opts.Sort,
		Summary:     facet.Summarize(tasks),
		Tasks:       make([]Task, 0, len(tasks)),
	}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, NewTask(t))
	}
	if len(opts.Dimensions) > 0 {
		doc.Facets = make(map[string][]facet.Facet, len(opts.Dimensions))
		for _, d := range opts.Dimensions {
			doc.Facets[d.String()] = facet.Aggregate(tasks, d)
		}
	}
	return doc
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// SaveJSON writes v to path, creating parent directories.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

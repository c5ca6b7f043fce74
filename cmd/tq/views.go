package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/todoq/internal/savedview"
	"github.com/vanderheijden86/todoq/pkg/query"
)

// isTerminal checks if stdin is connected to a terminal
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptTitle asks for a saved view title.
var promptTitle = func(q string) (string, error) {
	title := q
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Saved view title").
				Description(q).
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(title), nil
}

// runViewCommands handles the saved view flags. It reports whether the
// command is complete; --apply-view only sets opts.query and lets the
// listing continue.
func runViewCommands(ctx context.Context, store savedview.Store, opts *options, stdout, stderr io.Writer) (bool, int) {
	switch {
	case opts.set["save-view"]:
		q := strings.TrimSpace(opts.query)
		if q == "" {
			fmt.Fprintln(stderr, "Error: --save-view needs --query")
			return true, exitUsage
		}
		if err := query.Validate(q); err != nil {
			fmt.Fprintf(stderr, "Error: malformed query %q: %v\n", q, err)
			return true, exitUsage
		}
		title := strings.TrimSpace(opts.saveView)
		if title == "" {
			if isTerminal() {
				var err error
				if title, err = promptTitle(q); err != nil {
					fmt.Fprintf(stderr, "Error: %v\n", err)
					return true, exitError
				}
			} else {
				title = q
			}
		}
		if err := store.Save(ctx, savedview.View{Title: title, Query: q}); err != nil {
			fmt.Fprintf(stderr, "Error saving view: %v\n", err)
			return true, exitError
		}
		fmt.Fprintf(stdout, "Saved view %q\n", title)
		return true, exitOK

	case opts.deleteView >= 0:
		if err := store.Delete(ctx, opts.deleteView); err != nil {
			fmt.Fprintf(stderr, "Error deleting view: %v\n", err)
			return true, exitError
		}
		fmt.Fprintf(stdout, "Deleted view %d\n", opts.deleteView)
		return true, exitOK

	case opts.views:
		views, err := store.List(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error listing views: %v\n", err)
			return true, exitError
		}
		if opts.jsonOut {
			if views == nil {
				views = []savedview.View{}
			}
			if err := writeJSON(stdout, views); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return true, exitError
			}
			return true, exitOK
		}
		if len(views) == 0 {
			fmt.Fprintln(stdout, "No saved views")
		}
		for i, v := range views {
			fmt.Fprintf(stdout, "%d  %s  %s\n", i, v.Title, v.Query)
		}
		return true, exitOK

	case opts.applyView >= 0:
		v, err := savedview.Get(ctx, store, opts.applyView)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return true, exitError
		}
		opts.query = v.Query
		opts.set["query"] = true
		return false, exitOK
	}
	return false, exitOK
}

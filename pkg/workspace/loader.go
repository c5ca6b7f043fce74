package workspace

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/todoq/pkg/loader"
	"github.com/vanderheijden86/todoq/pkg/model"
)

// LoadResult contains the result of loading a single list
type LoadResult struct {
	// ListName is the display name of the list
	ListName string

	// Path is the resolved file path
	Path string

	// Tasks are the parsed tasks in file order
	Tasks []*model.Task

	// Error is set if loading failed
	Error error
}

// AggregateLoader loads tasks from every enabled list in a workspace
type AggregateLoader struct {
	config *Config
	root   string
	opts   loader.ParseOptions
	logger *log.Logger
}

// NewAggregateLoader creates a loader resolving relative list paths
// against root.
func NewAggregateLoader(config *Config, root string) *AggregateLoader {
	return &AggregateLoader{
		config: config,
		root:   root,
		// Silence by default. Callers can opt-in via SetLogger.
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for error reporting
func (l *AggregateLoader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// SetParseOptions sets the options used for every list.
func (l *AggregateLoader) SetParseOptions(opts loader.ParseOptions) {
	l.opts = opts
}

// LoadAll loads all enabled lists in parallel and returns their tasks
// concatenated in config order. Failed lists are logged and reported in the
// results but do not fail the whole load.
func (l *AggregateLoader) LoadAll(ctx context.Context) ([]*model.Task, []LoadResult, error) {
	if l.config == nil {
		return nil, nil, fmt.Errorf("workspace config is nil")
	}

	enabled := l.enabledLists()
	if len(enabled) == 0 {
		return nil, nil, ErrNoLists
	}

	results, err := l.loadParallel(ctx, enabled)
	if err != nil {
		return nil, results, fmt.Errorf("fatal error during parallel loading: %w", err)
	}

	var all []*model.Task
	for _, result := range results {
		if result.Error != nil {
			l.logger.Printf("WARNING: Failed to load list %q: %v", result.ListName, result.Error)
			continue
		}
		all = append(all, result.Tasks...)
	}
	return all, results, nil
}

func (l *AggregateLoader) enabledLists() []ListConfig {
	var enabled []ListConfig
	for _, list := range l.config.Lists {
		if list.IsEnabled() {
			enabled = append(enabled, list)
		}
	}
	return enabled
}

func (l *AggregateLoader) resolve(path string) string {
	if filepath.IsAbs(path) || l.root == "" {
		return path
	}
	return filepath.Join(l.root, path)
}

func (l *AggregateLoader) loadParallel(ctx context.Context, lists []ListConfig) ([]LoadResult, error) {
	results := make([]LoadResult, len(lists))

	g, ctx := errgroup.WithContext(ctx)
	// Bound open file descriptors.
	g.SetLimit(8)

	for i, list := range lists {
		g.Go(func() error {
			res := LoadResult{ListName: list.GetName(), Path: l.resolve(list.Path)}
			select {
			case <-ctx.Done():
				res.Error = ctx.Err()
				results[i] = res
				return nil
			default:
			}

			res.Tasks, res.Error = loader.LoadTasksFromFileWithOptions(res.Path, l.opts)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	l.logger.Printf("Finished parallel loading of %d lists", len(lists))
	return results, nil
}

// LoadSummary summarizes a set of load results
type LoadSummary struct {
	TotalLists      int
	SuccessfulLists int
	FailedLists     int
	TotalTasks      int
	FailedListNames []string
}

// Summarize returns a summary of the load results
func Summarize(results []LoadResult) LoadSummary {
	summary := LoadSummary{TotalLists: len(results)}
	for _, result := range results {
		if result.Error != nil {
			summary.FailedLists++
			summary.FailedListNames = append(summary.FailedListNames, result.ListName)
			continue
		}
		summary.SuccessfulLists++
		summary.TotalTasks += len(result.Tasks)
	}
	return summary
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/todoq/internal/savedview"
	"github.com/vanderheijden86/todoq/pkg/config"
	"github.com/vanderheijden86/todoq/pkg/debug"
	"github.com/vanderheijden86/todoq/pkg/loader"
	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/query"
	"github.com/vanderheijden86/todoq/pkg/tasksort"
	"github.com/vanderheijden86/todoq/pkg/ui"
	"github.com/vanderheijden86/todoq/pkg/version"
	"github.com/vanderheijden86/todoq/pkg/watcher"
	"github.com/vanderheijden86/todoq/pkg/workspace"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	file       string
	configPath string
	query      string
	sortKey    string
	desc       bool
	facets     string
	jsonOut    bool
	stats      bool
	archive    bool
	all        bool
	views      bool
	saveView   string
	deleteView int
	applyView  int
	snapshot   string
	textRange  string
	tui        bool
	metrics    bool
	cpuProfile string
	version    bool
	help       bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tq", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "Path to todo.txt (overrides TODO_FILE, TODO_DIR and config)")
	fs.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: XDG config dir)")
	fs.StringVar(&opts.query, "query", "", "Filter query, e.g. '+work & !done'")
	fs.StringVar(&opts.sortKey, "sort", "", "Sort key: "+sortKeyList())
	fs.BoolVar(&opts.desc, "desc", false, "Reverse the sort order (done tasks stay last)")
	fs.StringVar(&opts.facets, "facets", "", "Print facet counts for a dimension: project, context, priority, due")
	fs.BoolVar(&opts.jsonOut, "json", false, "Write output as JSON")
	fs.BoolVar(&opts.stats, "stats", false, "Print total/completed/pending/overdue counts")
	fs.BoolVar(&opts.archive, "archive", false, "Move done tasks to the done file")
	fs.BoolVar(&opts.all, "all", false, "Include the done file and configured lists")
	fs.BoolVar(&opts.views, "views", false, "List saved views")
	fs.StringVar(&opts.saveView, "save-view", "", "Save --query as a view with this title (prompts when empty on a terminal)")
	fs.IntVar(&opts.deleteView, "delete-view", -1, "Delete the saved view at index N")
	fs.IntVar(&opts.applyView, "apply-view", -1, "Use the saved view at index N as the query")
	fs.StringVar(&opts.snapshot, "snapshot", "", "Write the facet chart to PATH (.svg or .png)")
	fs.StringVar(&opts.textRange, "range", "", "Only tasks on lines touched by byte range START:END of the todo file")
	fs.BoolVar(&opts.tui, "tui", false, "Launch the terminal UI with live reload")
	fs.BoolVar(&opts.metrics, "metrics", false, "Print timing metrics as JSON to stderr")
	fs.StringVar(&opts.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&opts.version, "version", false, "Show version")
	fs.BoolVar(&opts.help, "help", false, "Show help")
	return fs
}

func sortKeyList() string {
	keys := make([]string, len(tasksort.Keys))
	for i, k := range tasksort.Keys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := options{set: make(map[string]bool)}
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.help {
		fmt.Fprintln(stdout, "Usage: tq [options]")
		fmt.Fprintln(stdout, "\nFilter, sort and browse a todo.txt file.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return exitOK
	}
	if opts.version {
		fmt.Fprintf(stdout, "tq %s\n", version.String())
		return exitOK
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return exitError
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return exitError
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		// Non-fatal: continue without config
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	code := execute(context.Background(), opts, cfg, stdout, stderr)
	if opts.metrics {
		if err := writeMetrics(stderr); err != nil {
			fmt.Fprintf(stderr, "Error writing metrics: %v\n", err)
		}
	}
	return code
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func execute(ctx context.Context, opts options, cfg config.Config, stdout, stderr io.Writer) int {
	if opts.views || opts.set["save-view"] || opts.deleteView >= 0 || opts.applyView >= 0 {
		store, err := savedview.Open(cfg.Views.Backend, cfg.ViewsPath())
		if err != nil {
			fmt.Fprintf(stderr, "Error opening saved views: %v\n", err)
			return exitError
		}
		defer store.Close()

		done, code := runViewCommands(ctx, store, &opts, stdout, stderr)
		if done {
			return code
		}
	}

	todoPath, err := resolveTodoPath(opts.file, cfg, func(msg string) {
		fmt.Fprintf(stderr, "Warning: %s\n", msg)
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	debug.Log("todo file: %s", todoPath)

	if opts.archive {
		return runArchive(todoPath, cfg.DoneFile, opts.jsonOut, stdout, stderr)
	}

	orderBy, desc, err := resolveSort(opts, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	q := resolveQuery(opts, cfg)

	reload := func() ([]*model.Task, error) {
		return loadTasks(ctx, todoPath, opts, cfg, stderr)
	}
	tasks, err := reload()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading tasks: %v\n", err)
		return exitError
	}

	if opts.tui {
		uiCfg := cfg
		uiCfg.DefaultQuery = q
		uiCfg.Sort.OrderBy = string(orderBy)
		uiCfg.Sort.Descending = desc
		if opts.facets != "" {
			uiCfg.UI.ShowFacets = opts.facets
		}
		return runTUI(tasks, todoPath, uiCfg, reload, opts, stderr)
	}

	if q != "" {
		if err := query.Validate(q); err != nil {
			fmt.Fprintf(stderr, "Warning: malformed query %q matches nothing: %v\n", q, err)
		}
		tasks = query.Filter(tasks, q)
	}
	tasksort.Sort(tasks, orderBy, desc)

	out := output{w: stdout, json: opts.jsonOut}
	switch {
	case opts.facets != "" || opts.snapshot != "":
		dimName := opts.facets
		if dimName == "" {
			dimName = cfg.UI.ShowFacets
		}
		d, err := query.ParseDimension(dimName)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		err = out.facets(tasks, d, opts.snapshot, opts.facets != "")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		if opts.snapshot != "" {
			fmt.Fprintf(stderr, "Wrote facet chart to %s\n", opts.snapshot)
		}
	case opts.stats:
		if err := out.stats(tasks); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	default:
		if err := out.tasks(tasks, todoPath, q, orderBy); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

// resolveTodoPath applies the precedence flag > env > config > working directory.
func resolveTodoPath(flagPath string, cfg config.Config, warn func(string)) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if os.Getenv(loader.TodoFileEnvVar) == "" && os.Getenv(loader.TodoDirEnvVar) == "" && cfg.TodoFile != "" {
		return cfg.TodoFile, nil
	}
	return loader.FindTodoPathWithWarnings("", warn)
}

func resolveSort(opts options, cfg config.Config) (tasksort.OrderBy, bool, error) {
	key := cfg.Sort.OrderBy
	if opts.sortKey != "" {
		key = opts.sortKey
	}
	if key == "" {
		key = string(tasksort.ByPriority)
	}
	orderBy, err := tasksort.ParseOrderBy(key)
	if err != nil {
		return "", false, fmt.Errorf("%w (want %s)", err, sortKeyList())
	}
	desc := cfg.Sort.Descending
	if opts.set["desc"] {
		desc = opts.desc
	}
	return orderBy, desc, nil
}

func resolveQuery(opts options, cfg config.Config) string {
	if opts.set["query"] {
		return strings.TrimSpace(opts.query)
	}
	return strings.TrimSpace(cfg.DefaultQuery)
}

func loadTasks(ctx context.Context, todoPath string, opts options, cfg config.Config, stderr io.Writer) ([]*model.Task, error) {
	if opts.textRange != "" {
		return loadRange(todoPath, opts.textRange)
	}
	if !opts.all {
		return loader.LoadTasksFromFile(todoPath)
	}

	extra := append([]string{loader.DonePath(todoPath, cfg.DoneFile)}, cfg.Lists...)
	wsCfg := workspace.NewConfig(todoPath, extra...)
	if err := wsCfg.Validate(); err != nil {
		return nil, err
	}
	l := workspace.NewAggregateLoader(wsCfg, filepath.Dir(todoPath))
	if debug.Enabled() {
		l.SetLogger(log.New(stderr, "", 0))
	}
	tasks, results, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	summary := workspace.Summarize(results)
	debug.Log("workspace: %d/%d lists loaded, %d tasks", summary.SuccessfulLists, summary.TotalLists, summary.TotalTasks)
	if len(results) > 0 && results[0].Error != nil {
		return nil, results[0].Error
	}
	return tasks, nil
}

func loadRange(todoPath, arg string) ([]*model.Task, error) {
	startStr, endStr, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("invalid --range %q (want START:END)", arg)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(startStr))
	end, err2 := strconv.Atoi(strings.TrimSpace(endStr))
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("invalid --range %q (want START:END)", arg)
	}
	data, err := os.ReadFile(todoPath)
	if err != nil {
		return nil, err
	}
	return loader.TasksInRange(string(data), start, end)
}

func runArchive(todoPath, doneName string, jsonOut bool, stdout, stderr io.Writer) int {
	res, err := loader.ArchiveDone(todoPath, doneName)
	if err != nil {
		fmt.Fprintf(stderr, "Error archiving: %v\n", err)
		return exitError
	}
	if jsonOut {
		if err := writeJSON(stdout, res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	}
	if res.Moved == 0 {
		fmt.Fprintln(stdout, "No done tasks to archive")
		return exitOK
	}
	fmt.Fprintf(stdout, "Archived %d task(s) to %s, %d remaining\n", res.Moved, res.DonePath, res.Kept)
	return exitOK
}

func runTUI(tasks []*model.Task, todoPath string, cfg config.Config, reload ui.ReloadFunc, opts options, stderr io.Writer) int {
	if debug.Enabled() {
		path, restore, err := redirectDebugLog(config.DataDir())
		if err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		} else {
			defer restore()
			fmt.Fprintf(stderr, "Debug log: %s\n", path)
		}
	}

	m := ui.NewModel(tasks, filepath.Base(todoPath)).WithConfig(cfg).WithReload(reload)

	if opts.textRange == "" {
		watchOpts := []watcher.WatcherOption{
			watcher.WithPollInterval(cfg.Watch.PollInterval),
			watcher.WithForcePoll(cfg.Watch.ForcePoll),
			watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
		}
		if opts.all {
			extra := append([]string{loader.DonePath(todoPath, cfg.DoneFile)}, cfg.Lists...)
			watchOpts = append(watchOpts, watcher.WithExtraPaths(extra...))
		}
		w, err := watcher.NewWatcher(todoPath, watchOpts...)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			fmt.Fprintf(stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			m = m.WithWatcher(w)
		}
	}

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running tq: %v\n", err)
		return exitError
	}
	return exitOK
}

// redirectDebugLog sends debug output to dir/debug.log while the alt screen
// owns the terminal. restore puts the previous writer back.
func redirectDebugLog(dir string) (string, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("debug log dir: %w", err)
	}
	path := filepath.Join(dir, "debug.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("open debug log: %w", err)
	}
	prev := debug.SetOutput(f)
	return path, func() {
		debug.SetOutput(prev)
		f.Close()
	}, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

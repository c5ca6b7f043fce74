// Package loader reads and writes todo.txt files.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/todoq/pkg/metrics"
	"github.com/vanderheijden86/todoq/pkg/model"
)

const (
	// TodoDirEnvVar names a directory holding todo.txt.
	TodoDirEnvVar = "TODO_DIR"
	// TodoFileEnvVar names the todo file itself and wins over TodoDirEnvVar.
	TodoFileEnvVar = "TODO_FILE"

	DefaultTodoName = "todo.txt"
	DefaultDoneName = "done.txt"
)

// PreferredTodoNames defines the lookup order inside a todo directory.
var PreferredTodoNames = []string{"todo.txt", "Todo.txt", "TODO.txt"}

var (
	// ErrNoTodoFile is returned when no todo file can be located.
	ErrNoTodoFile = errors.New("no todo.txt file found")
	// ErrInvalidRange is returned by TasksInRange for out-of-bounds offsets.
	ErrInvalidRange = errors.New("invalid text range")
)

// GetTodoDir returns the todo directory, respecting TODO_DIR.
// Otherwise falls back to dir, or the working directory when dir is empty.
func GetTodoDir(dir string) (string, error) {
	if envDir := os.Getenv(TodoDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	return dir, nil
}

// FindTodoPath locates the todo file. TODO_FILE is returned as is; otherwise
// the todo directory is searched for PreferredTodoNames, then *.todo.txt.
func FindTodoPath(dir string) (string, error) {
	return FindTodoPathWithWarnings(dir, nil)
}

// FindTodoPathWithWarnings is like FindTodoPath but reports skipped editor
// backups and conflict copies via warnFunc.
func FindTodoPathWithWarnings(dir string, warnFunc func(msg string)) (string, error) {
	if envFile := os.Getenv(TodoFileEnvVar); envFile != "" {
		return envFile, nil
	}
	todoDir, err := GetTodoDir(dir)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(todoDir)
	if err != nil {
		return "", fmt.Errorf("failed to read todo directory: %w", err)
	}

	var candidates, skipped []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), "todo.txt") {
			if isBackupName(name) {
				skipped = append(skipped, name)
			}
			continue
		}
		candidates = append(candidates, name)
	}

	if len(skipped) > 0 && warnFunc != nil {
		warnFunc(fmt.Sprintf("ignoring backup files: %s", strings.Join(skipped, ", ")))
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoTodoFile, todoDir)
	}

	for _, preferred := range PreferredTodoNames {
		for _, name := range candidates {
			if name == preferred {
				return filepath.Join(todoDir, name), nil
			}
		}
	}
	return filepath.Join(todoDir, candidates[0]), nil
}

func isBackupName(name string) bool {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "todo.txt") {
		return false
	}
	return strings.HasSuffix(lower, "~") ||
		strings.HasSuffix(lower, ".bak") ||
		strings.HasSuffix(lower, ".orig") ||
		strings.Contains(lower, "conflict")
}

// DefaultMaxBufferSize is the default maximum line size (1MB).
const DefaultMaxBufferSize = 1024 * 1024

// ParseOptions configures ParseTasksWithOptions.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., skipped lines).
	// If nil, warnings are printed to os.Stderr unless TQ_ROBOT=1.
	WarningHandler func(string)

	// BufferSize sets the maximum line size in bytes.
	// Longer lines are skipped with a warning. If 0, uses DefaultMaxBufferSize.
	BufferSize int

	// SkipBlank drops whitespace-only lines. Leave it off when the result is
	// written back, so blank lines survive.
	SkipBlank bool

	// TaskFilter optionally filters parsed tasks. Return true to include.
	TaskFilter func(*model.Task) bool
}

func (o ParseOptions) warner() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	if os.Getenv("TQ_ROBOT") == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// ParseText splits text on "\n" and returns one task per line, in order.
func ParseText(text string) []*model.Task {
	defer metrics.Timer(metrics.Parse)()
	return model.NewTasks(strings.Split(text, "\n"))
}

// ParseTasks reads tasks from r, one per line.
func ParseTasks(r io.Reader) ([]*model.Task, error) {
	return ParseTasksWithOptions(r, ParseOptions{})
}

// ParseTasksWithOptions reads tasks from r. A UTF-8 BOM is stripped and
// lines are split on "\n" only, so ParseText and FormatTasks round trip.
func ParseTasksWithOptions(r io.Reader, opts ParseOptions) ([]*model.Task, error) {
	defer metrics.Timer(metrics.Parse)()

	maxLine := opts.BufferSize
	if maxLine <= 0 {
		maxLine = DefaultMaxBufferSize
	}
	warn := opts.warner()
	reader := bufio.NewReader(r)

	var tasks []*model.Task
	for lineNum := 1; ; lineNum++ {
		raw, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading todo stream at line %d: %w", lineNum, err)
		}
		eof := err == io.EOF
		line := strings.TrimSuffix(raw, "\n")
		if lineNum == 1 {
			line = string(stripBOM([]byte(line)))
		}

		switch {
		case len(line) > maxLine:
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxLine))
		case opts.SkipBlank && strings.TrimSpace(line) == "":
		default:
			task := model.NewTask(line)
			if opts.TaskFilter == nil || opts.TaskFilter(task) {
				tasks = append(tasks, task)
			}
		}
		if eof {
			break
		}
	}
	return tasks, nil
}

// LoadTasksFromFile reads tasks from a todo file.
func LoadTasksFromFile(path string) ([]*model.Task, error) {
	return LoadTasksFromFileWithOptions(path, ParseOptions{})
}

// LoadTasksFromFileWithOptions reads tasks from a todo file with custom options.
func LoadTasksFromFileWithOptions(path string, opts ParseOptions) ([]*model.Task, error) {
	defer metrics.Timer(metrics.FileLoad)()

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoTodoFile, path)
		}
		return nil, fmt.Errorf("failed to open todo file: %w", err)
	}
	defer file.Close()

	return ParseTasksWithOptions(file, opts)
}

// LoadTasks locates the todo file under dir (see FindTodoPath) and reads it.
func LoadTasks(dir string) ([]*model.Task, error) {
	path, err := FindTodoPath(dir)
	if err != nil {
		return nil, err
	}
	return LoadTasksFromFile(path)
}

// FormatTasks joins raw task lines with "\n", without a trailing newline.
func FormatTasks(tasks []*model.Task) string {
	var sb strings.Builder
	for i, t := range tasks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.Line())
	}
	return sb.String()
}

// WriteTasks replaces path with the formatted tasks.
func WriteTasks(path string, tasks []*model.Task) error {
	return writeFileAtomic(path, []byte(FormatTasks(tasks)))
}

// writeFileAtomic writes to a sibling temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// TasksInRange returns the tasks on every line touched by text[start:end].
// The range is widened to whole lines.
func TasksInRange(text string, start, end int) ([]*model.Task, error) {
	if start < 0 || end < start || end > len(text) {
		return nil, fmt.Errorf("%w: [%d,%d) of %d bytes", ErrInvalidRange, start, end, len(text))
	}
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}
	return model.NewTasks(strings.Split(text[lineStart:lineEnd], "\n")), nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

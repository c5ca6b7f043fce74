package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/todoq/pkg/model"
)

// ArchiveResult reports what ArchiveDone moved.
type ArchiveResult struct {
	Moved    int    `json:"moved"`
	Kept     int    `json:"kept"`
	DonePath string `json:"done_path"`
}

// DonePath resolves doneName to a file next to todoPath. Only the base name
// of doneName is used; an empty name falls back to DefaultDoneName.
func DonePath(todoPath, doneName string) string {
	name := filepath.Base(strings.TrimSpace(doneName))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = DefaultDoneName
	}
	return filepath.Join(filepath.Dir(todoPath), name)
}

// ArchiveDone moves completed tasks from todoPath to the done file beside it.
// The done file keeps its trimmed content followed by the moved lines and a
// trailing newline; the todo file is rewritten with the remaining lines.
// Nothing is written when no task is done.
func ArchiveDone(todoPath, doneName string) (ArchiveResult, error) {
	res := ArchiveResult{DonePath: DonePath(todoPath, doneName)}

	data, err := os.ReadFile(todoPath)
	if err != nil {
		return res, fmt.Errorf("read todo file: %w", err)
	}
	keep, move := SplitDone(ParseText(string(stripBOM(data))))
	res.Kept = len(keep)
	if len(move) == 0 {
		return res, nil
	}

	var done strings.Builder
	existing, err := os.ReadFile(res.DonePath)
	switch {
	case err == nil:
		if prev := strings.TrimSpace(string(existing)); prev != "" {
			done.WriteString(prev)
			done.WriteByte('\n')
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return res, fmt.Errorf("read done file: %w", err)
	}
	done.WriteString(FormatTasks(move))
	done.WriteByte('\n')

	if err := writeFileAtomic(res.DonePath, []byte(done.String())); err != nil {
		return res, fmt.Errorf("write done file: %w", err)
	}
	if err := WriteTasks(todoPath, keep); err != nil {
		return res, fmt.Errorf("write todo file: %w", err)
	}
	res.Moved = len(move)
	return res, nil
}

// SplitDone partitions tasks into open and done, preserving order.
func SplitDone(tasks []*model.Task) (keep, move []*model.Task) {
	for _, t := range tasks {
		if t.IsDone() {
			move = append(move, t)
		} else {
			keep = append(keep, t)
		}
	}
	return keep, move
}

package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func writeTodo(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type changeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *changeRecorder) record(paths []string) {
	r.mu.Lock()
	r.paths = append(r.paths, paths...)
	r.mu.Unlock()
}

func (r *changeRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "(A) initial")

	var rec changeRecorder
	w, err := NewWatcher(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(rec.record),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(tmpFile, []byte("(A) initial\n(B) added"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if len(rec.seen()) == 0 {
		t.Error("expected change to be detected")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

	var rec changeRecorder
	w, err := NewWatcher(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(rec.record),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected watcher to be in polling mode")
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(tmpFile, []byte("modified via polling"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	got := rec.seen()
	if len(got) != 1 || got[0] != w.Path() {
		t.Errorf("expected one change for %s, got %v", w.Path(), got)
	}
}

func TestWatcher_ExtraPaths(t *testing.T) {
	dir := t.TempDir()
	todo := writeTodo(t, dir, "todo.txt", "a")
	done := writeTodo(t, dir, "done.txt", "x b")

	var rec changeRecorder
	w, err := NewWatcher(todo,
		WithExtraPaths(done, todo, ""),
		WithDebounceDuration(30*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(rec.record),
	)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(w.Paths()); n != 2 {
		t.Fatalf("expected 2 unique paths, got %d", n)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	if err := os.WriteFile(done, []byte("x b\nx c"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)

	absDone, _ := filepath.Abs(done)
	got := rec.seen()
	if len(got) != 1 || got[0] != absDone {
		t.Errorf("expected change for %s, got %v", absDone, got)
	}
}

func TestWatcher_ChangedChannel(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

	w, err := NewWatcher(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(tmpFile, []byte("new content"), 0644)
	}()

	select {
	case <-w.Changed():
	case <-time.After(500 * time.Millisecond):
		t.Error("timeout waiting for change notification")
	}
}

func TestWatcher_EnvForcePolling(t *testing.T) {
	for _, name := range []string{"TQ_FORCE_POLLING", "TQ_FORCE_POLL"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, "1")
			tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

			w, err := NewWatcher(tmpFile, WithPollInterval(25*time.Millisecond))
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Start(); err != nil {
				t.Fatal(err)
			}
			defer w.Stop()

			if !w.IsPolling() {
				t.Fatalf("expected polling mode when %s is set", name)
			}
		})
	}
}

func TestWatcher_RemoteFilesystem_UsesPolling(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	w, err := NewWatcher(tmpFile, WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to use polling on remote filesystem")
	}
	if got := w.FilesystemType(); got != FSTypeNFS {
		t.Fatalf("expected filesystem type %v, got %v", FSTypeNFS, got)
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

	var (
		errMu   sync.Mutex
		gotErrs []error
	)
	w, err := NewWatcher(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			errMu.Lock()
			gotErrs = append(gotErrs, err)
			errMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	if err := os.Remove(tmpFile); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	errMu.Lock()
	defer errMu.Unlock()
	if len(gotErrs) != 1 {
		t.Fatalf("expected exactly one error, got %v", gotErrs)
	}
	if !errors.Is(gotErrs[0], ErrFileRemoved) {
		t.Errorf("expected ErrFileRemoved, got %v", gotErrs[0])
	}
}

func TestWatcher_StartStop(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

	w, err := NewWatcher(tmpFile)
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started after Start()")
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should not be started after Stop()")
	}
	w.Stop()
}

func TestWatcher_MissingFileIsWatched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "later.txt")

	var rec changeRecorder
	w, err := NewWatcher(path,
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(40*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(rec.record),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("expected missing file to be accepted, got %v", err)
	}
	defer w.Stop()

	writeTodo(t, dir, "later.txt", "created")
	time.Sleep(250 * time.Millisecond)
	if len(rec.seen()) == 0 {
		t.Error("expected creation to be reported as a change")
	}
}

func TestWatcher_PathAndInterval(t *testing.T) {
	tmpFile := writeTodo(t, t.TempDir(), "todo.txt", "initial")

	w, err := NewWatcher(tmpFile, WithPollInterval(500*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	absPath, _ := filepath.Abs(tmpFile)
	if w.Path() != absPath {
		t.Errorf("expected path %s, got %s", absPath, w.Path())
	}
	if got := w.PollInterval(); got != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", got)
	}
}

func TestNewWatcher_NoPath(t *testing.T) {
	if _, err := NewWatcher(""); err == nil {
		t.Error("expected error without a path")
	}
}

func TestFilesystemType_String(t *testing.T) {
	tests := []struct {
		fsType   FilesystemType
		expected string
	}{
		{FSTypeUnknown, "unknown"},
		{FSTypeLocal, "local"},
		{FSTypeNFS, "nfs"},
		{FSTypeSMB, "smb"},
		{FSTypeSSHFS, "sshfs"},
		{FSTypeFUSE, "fuse"},
		{FilesystemType(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.fsType.String(); got != tc.expected {
			t.Errorf("FilesystemType(%d).String() = %q, expected %q", tc.fsType, got, tc.expected)
		}
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"y", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TEST_ENV_BOOL", tc.value)
			if got := envBool("TEST_ENV_BOOL"); got != tc.expected {
				t.Errorf("envBool(%q) = %v, expected %v", tc.value, got, tc.expected)
			}
		})
	}
}

func TestDetectFilesystemType(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("DetectFilesystemType(\"\") = %v, expected FSTypeUnknown", got)
	}
	// Falls back to the parent directory.
	missing := filepath.Join(t.TempDir(), "nope", "todo.txt")
	if got := DetectFilesystemType(missing); got == FSTypeUnknown {
		t.Errorf("expected a classification via parent dir, got %v", got)
	}
}

package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/seanpm2001/atom/internal/atom"
	"github.com/seanpm2001/atom/internal/schema"
)

const lineDef = `
[[class]]
name = "Line"
  [[class.member]]
  name = "width"
  kind = "int"
  default = 1
`

const lineDefV2 = `
[[class]]
name = "Line"
  [[class.member]]
  name = "width"
  kind = "int"
  default = 2
`

type reload struct {
	res *schema.LoadResult
	err error
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}

func newWatcher(t *testing.T, reg *atom.Registry, paths ...string) (*Watcher, chan reload) {
	t.Helper()
	reloads := make(chan reload, 16)
	w, err := New(reg, paths,
		WithDebounce(20*time.Millisecond),
		WithOnReload(func(res *schema.LoadResult, err error) {
			reloads <- reload{res, err}
		}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, reloads
}

func waitReload(t *testing.T, reloads <-chan reload) reload {
	t.Helper()
	select {
	case r := <-reloads:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return reload{}
	}
}

func defaultWidth(t *testing.T, reg *atom.Registry) any {
	t.Helper()
	a, err := reg.New("Line")
	if err != nil {
		t.Fatalf("New(Line) error = %v", err)
	}
	v, err := a.Get("width")
	if err != nil {
		t.Fatalf("Get(width) error = %v", err)
	}
	return v
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "line.toml")
	writeFile(t, path, lineDef)

	reg := atom.NewRegistry()
	w, reloads := newWatcher(t, reg, dir)

	res, err := w.Start()
	if err != nil {
		t.Fatalf("Start error = %v", err)
	}
	if len(res.Added) != 1 || res.Added[0] != "Line" {
		t.Errorf("Added = %v, want [Line]", res.Added)
	}
	waitReload(t, reloads)

	if got := defaultWidth(t, reg); got != 1 {
		t.Errorf("width = %v, want 1", got)
	}

	writeFile(t, path, lineDefV2)
	r := waitReload(t, reloads)
	if r.err != nil {
		t.Fatalf("reload error = %v", r.err)
	}
	if len(r.res.Replaced) != 1 {
		t.Errorf("Replaced = %v, want [Line]", r.res.Replaced)
	}
	if got := defaultWidth(t, reg); got != 2 {
		t.Errorf("width after reload = %v, want 2", got)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if st := w.Stats(); st.Reloads < 2 || st.Events < 1 {
		t.Errorf("Stats = %+v, want at least 2 reloads and 1 event", st)
	}
}

func TestWatcher_BrokenFileKeepsClasses(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "line.toml")
	writeFile(t, path, lineDef)

	reg := atom.NewRegistry()
	w, reloads := newWatcher(t, reg, path)
	if _, err := w.Start(); err != nil {
		t.Fatalf("Start error = %v", err)
	}
	waitReload(t, reloads)

	writeFile(t, path, "[[class]\n")
	r := waitReload(t, reloads)
	var perr *schema.ParseError
	if !errors.As(r.err, &perr) {
		t.Fatalf("reload error = %v, want ParseError", r.err)
	}
	if got := defaultWidth(t, reg); got != 1 {
		t.Errorf("width = %v, want 1", got)
	}
	if st := w.Stats(); st.Failures == 0 || st.LastError == nil {
		t.Errorf("Stats = %+v, want a recorded failure", st)
	}
	_ = w.Close()
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "line.toml"), lineDef)

	reg := atom.NewRegistry()
	w, reloads := newWatcher(t, reg, dir)
	if _, err := w.Start(); err != nil {
		t.Fatalf("Start error = %v", err)
	}
	waitReload(t, reloads)

	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")
	select {
	case r := <-reloads:
		t.Errorf("unexpected reload %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
	_ = w.Close()
}

func TestWatcher_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	if _, err := New(atom.NewRegistry(), nil); !errors.Is(err, ErrNoPaths) {
		t.Errorf("New without paths error = %v, want ErrNoPaths", err)
	}
	if _, err := New(atom.NewRegistry(), []string{filepath.Join(t.TempDir(), "missing")}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("New with missing path error = %v, want ErrNotExist", err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "line.toml"), lineDef)
	w, _ := newWatcher(t, atom.NewRegistry(), dir)

	if _, err := w.Start(); err != nil {
		t.Fatalf("Start error = %v", err)
	}
	if _, err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start error = %v, want ErrAlreadyStarted", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	if _, err := w.Reload(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Reload after Close error = %v, want ErrWatcherClosed", err)
	}
}

func TestWatcher_StartFailureWatchesNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.toml"), "[[class]]\nname = \"A\"\n  [[class.member]]\n  name = \"m\"\n  kind = \"nope\"\n")

	w, reloads := newWatcher(t, atom.NewRegistry(), dir)
	if _, err := w.Start(); !errors.Is(err, schema.ErrUnknownKind) {
		t.Fatalf("Start error = %v, want ErrUnknownKind", err)
	}
	if r := waitReload(t, reloads); r.err == nil {
		t.Error("reload callback should see the failure")
	}
	if _, err := w.Start(); !errors.Is(err, schema.ErrUnknownKind) {
		t.Errorf("retry Start error = %v, want ErrUnknownKind", err)
	}
	_ = w.Close()
}

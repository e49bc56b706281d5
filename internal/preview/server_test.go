package preview

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/studylog/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteLog(t, dir, "index.html", "<h1>week</h1>")
	testutil.WriteLog(t, dir, "404.html", "<h1>missing</h1>")
	testutil.WriteLog(t, dir, "day/2024-01-10/index.html", "<h1>day</h1>")
	return dir
}

func newTestServer(t *testing.T, dir string, snap *atomic.Value, builds *atomic.Int32) *Server {
	t.Helper()
	build := func(context.Context) (int, error) {
		builds.Add(1)
		return 3, nil
	}
	snapshot := func() (string, error) { return snap.Load().(string), nil }
	s := New(dir, t.TempDir(), build, snapshot, testutil.Logger())
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	body, _ := io.ReadAll(w.Result().Body)
	return w.Code, string(body)
}

func TestHandler_Health(t *testing.T) {
	var snap atomic.Value
	snap.Store("a")
	var builds atomic.Int32
	s := newTestServer(t, siteDir(t), &snap, &builds)
	h := s.Handler()

	if code, _ := get(t, h, "/health/live"); code != http.StatusOK {
		t.Errorf("live = %d", code)
	}
	if code, body := get(t, h, "/health/ready"); code != http.StatusServiceUnavailable || !strings.Contains(body, "building") {
		t.Errorf("ready before build = %d %s", code, body)
	}
	if _, err := s.Rebuild(context.Background(), true); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if code, _ := get(t, h, "/health/ready"); code != http.StatusOK {
		t.Errorf("ready after build = %d", code)
	}
}

func TestHandler_StaticAndNotFound(t *testing.T) {
	var snap atomic.Value
	snap.Store("a")
	var builds atomic.Int32
	h := newTestServer(t, siteDir(t), &snap, &builds).Handler()

	if code, body := get(t, h, "/"); code != http.StatusOK || !strings.Contains(body, "week") {
		t.Errorf("/ = %d %q", code, body)
	}
	if code, body := get(t, h, "/day/2024-01-10/"); code != http.StatusOK || !strings.Contains(body, "day") {
		t.Errorf("day page = %d %q", code, body)
	}
	if code, body := get(t, h, "/day/1999-01-01/"); code != http.StatusNotFound || !strings.Contains(body, "missing") {
		t.Errorf("unknown page = %d %q", code, body)
	}
	if code, _ := get(t, h, "/../../etc/passwd"); code != http.StatusNotFound {
		t.Errorf("traversal = %d, want 404", code)
	}
}

func TestRebuild_SkipsUnchangedSnapshot(t *testing.T) {
	var snap atomic.Value
	snap.Store("a")
	var builds atomic.Int32
	s := newTestServer(t, siteDir(t), &snap, &builds)
	ctx := context.Background()

	if ran, err := s.Rebuild(ctx, false); err != nil || !ran {
		t.Fatalf("first rebuild ran=%v err=%v", ran, err)
	}
	if ran, _ := s.Rebuild(ctx, false); ran {
		t.Error("rebuild with same snapshot should be skipped")
	}
	if ran, _ := s.Rebuild(ctx, true); !ran {
		t.Error("forced rebuild should run")
	}
	snap.Store("b")
	if ran, _ := s.Rebuild(ctx, false); !ran {
		t.Error("rebuild after snapshot change should run")
	}
	if n := builds.Load(); n != 3 {
		t.Errorf("builds = %d, want 3", n)
	}
}

func TestRebuild_PublishesEvent(t *testing.T) {
	var snap atomic.Value
	snap.Store("abc")
	var builds atomic.Int32
	s := newTestServer(t, siteDir(t), &snap, &builds)

	ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(ch)

	if _, err := s.Rebuild(context.Background(), true); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: site.rebuilt") {
			t.Errorf("event = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestRebuild_BuildError(t *testing.T) {
	s := New(t.TempDir(), t.TempDir(),
		func(context.Context) (int, error) { return 0, errors.New("boom") },
		func() (string, error) { return "x", nil },
		testutil.Logger())
	defer s.Close()

	if _, err := s.Rebuild(context.Background(), true); err == nil {
		t.Fatal("expected error")
	}
	if s.ready.Load() {
		t.Error("server must not become ready after a failed build")
	}
}

func TestWatch_DebouncedChange(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, root, 50*time.Millisecond, testutil.Logger(), func() {
			mu.Lock()
			calls++
			mu.Unlock()
		})
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.MkdirAll(filepath.Join(root, "202401"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		testutil.WriteLog(t, root, "202401/2024-01-10.json", `{"date":"2024-01-10"}`)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 1
	}, "watcher never reported the change")

	cancel()
	<-done
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = Watch(ctx, root, 20*time.Millisecond, testutil.Logger(), func() { calls.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)

	testutil.WriteLog(t, root, "notes.txt", "hello")
	testutil.WriteLog(t, root, ".hidden.json", "{}")
	time.Sleep(200 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

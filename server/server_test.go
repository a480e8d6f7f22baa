package server_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/tailored-agentic-units/ark/observability"
	"github.com/tailored-agentic-units/ark/server"
	"github.com/tailored-agentic-units/ark/store"
)

func newTestStore(t *testing.T, fs afero.Fs) *store.Store[map[string]any] {
	t.Helper()
	s := store.New[map[string]any]("/srv/doc.json",
		store.WithFs(fs),
		store.WithObserver(observability.NoOpObserver{}),
	)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return s
}

func newTestClient(t *testing.T, svc *server.Service) *server.Client {
	t.Helper()
	path, handler := server.NewHandler(svc)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return server.NewClient(ts.Client(), ts.URL)
}

func TestService_PutThenGet(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestStore(t, fs)
	client := newTestClient(t, server.NewService(s))
	ctx := context.Background()

	want := map[string]any{"name": "ark", "count": float64(2), "tags": []any{"x"}}
	if err := client.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := client.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	reloaded := newTestStore(t, fs)
	if diff := cmp.Diff(want, reloaded.Data); diff != "" {
		t.Errorf("document on disk mismatch (-want +got):\n%s", diff)
	}
}

func TestService_Patch(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())
	client := newTestClient(t, server.NewService(s))
	ctx := context.Background()

	if err := client.Put(ctx, map[string]any{"keep": true, "drop": "me"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := client.Patch(ctx, map[string]any{"drop": nil, "added": "yes"})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	want := map[string]any{"keep": true, "added": "yes"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Patch() mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ConcurrentPatches(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())
	client := newTestClient(t, server.NewService(s))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			if _, err := client.Patch(ctx, map[string]any{fmt.Sprintf("k%02d", i): float64(i)}); err != nil {
				t.Errorf("Patch(%d) error = %v", i, err)
			}
		}()
	}
	wg.Wait()

	got, err := client.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != n {
		t.Errorf("Get() returned %d keys, want %d", len(got), n)
	}
}

func TestService_WriteFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := afero.WriteFile(base, "/srv/doc.json", []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, afero.NewReadOnlyFs(base))
	client := newTestClient(t, server.NewService(s))

	err := client.Put(context.Background(), map[string]any{"a": float64(2)})
	if err == nil {
		t.Fatal("Put() error = nil, want error")
	}
	if code := connect.CodeOf(err); code != connect.CodeInternal {
		t.Errorf("Put() code = %v, want %v", code, connect.CodeInternal)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())
	srv := server.New(server.Config{Addr: "127.0.0.1:0"}, server.NewService(s), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done, err := srv.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client := server.NewClient(http.DefaultClient, "http://"+srv.Addr())
	if err := client.Put(ctx, map[string]any{"up": true}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// heldFs blocks Rename while held, so a write can be caught between staging
// and rename.
type heldFs struct {
	afero.Fs

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (f *heldFs) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 1)
}

func (f *heldFs) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.gate)
	f.gate = nil
}

func (f *heldFs) Rename(oldname, newname string) error {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	return f.Fs.Rename(oldname, newname)
}

func TestServer_ShutdownCompletesInFlightPut(t *testing.T) {
	fs := &heldFs{Fs: afero.NewMemMapFs()}
	s := newTestStore(t, fs)
	srv := server.New(server.Config{Addr: "127.0.0.1:0"}, server.NewService(s), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done, err := srv.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	fs.hold()
	client := server.NewClient(http.DefaultClient, "http://"+srv.Addr())
	putErr := make(chan error, 1)
	go func() {
		putErr <- client.Put(context.Background(), map[string]any{"k": "v"})
	}()

	select {
	case <-fs.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("write never reached rename")
	}

	cancel()
	select {
	case err := <-done:
		t.Fatalf("server stopped with a write in flight, err = %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	fs.release()

	select {
	case err := <-putErr:
		if err != nil {
			t.Errorf("Put() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Put() did not return")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	data, err := afero.ReadFile(fs, "/srv/doc.json")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != `{"k":"v"}` {
		t.Errorf("file on disk = %s, want %s", data, `{"k":"v"}`)
	}
}

func TestService_FlushWithoutSaves(t *testing.T) {
	svc := server.NewService(newTestStore(t, afero.NewMemMapFs()))

	if err := svc.Flush(context.Background()); err != nil {
		t.Errorf("Flush() error = %v, want nil", err)
	}
}

func TestService_FlushWaitsForLastSave(t *testing.T) {
	fs := &heldFs{Fs: afero.NewMemMapFs()}
	s := newTestStore(t, fs)
	svc := server.NewService(s)
	client := newTestClient(t, svc)

	fs.hold()
	putErr := make(chan error, 1)
	go func() {
		putErr <- client.Put(context.Background(), map[string]any{"n": float64(1)})
	}()
	<-fs.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Flush() during held write error = %v, want %v", err, context.DeadlineExceeded)
	}

	fs.release()
	if err := svc.Flush(context.Background()); err != nil {
		t.Errorf("Flush() error = %v, want nil", err)
	}
	if err := <-putErr; err != nil {
		t.Errorf("Put() error = %v", err)
	}
}

func TestServer_BindFailure(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())
	srv := server.New(server.Config{Addr: "256.0.0.1:bad"}, server.NewService(s), nil)

	if _, err := srv.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want bind error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := server.DefaultConfig()
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("got Addr %q, want %q", cfg.Addr, "127.0.0.1:8080")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.Merge(&server.Config{Addr: ":9090"})
	if cfg.Addr != ":9090" {
		t.Errorf("got Addr %q, want %q", cfg.Addr, ":9090")
	}

	cfg.Merge(&server.Config{})
	if cfg.Addr != ":9090" {
		t.Errorf("got Addr %q, want %q (preserved)", cfg.Addr, ":9090")
	}
}

func TestConnectErrorUnwrapsStoreError(t *testing.T) {
	err := connect.NewError(connect.CodeInternal, fmt.Errorf("%w: /srv/doc.json: boom", store.ErrWriteFailed))
	if !errors.Is(err, store.ErrWriteFailed) {
		t.Errorf("errors.Is(%v, ErrWriteFailed) = false, want true", err)
	}
}

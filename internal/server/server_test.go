package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.Handler) (*Server, net.Listener) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(handler, Config{ShutdownTimeout: 2 * time.Second}, logger)
	return srv, ln
}

func TestServer_ServesAndShutsDown(t *testing.T) {
	srv, ln := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	srv.OnShutdown("database", record("database"))
	srv.OnShutdown("cache", record("cache"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if len(order) != 2 || order[0] != "cache" || order[1] != "database" {
		t.Errorf("shutdown order = %v, want [cache database]", order)
	}
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	srv, ln := newTestServer(t, http.NotFoundHandler())

	errCache := errors.New("cache close failed")
	srv.OnShutdown("cache", func(context.Context) error { return errCache })
	srv.OnShutdown("noop", func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Serve(ctx, ln)
	if !errors.Is(err, errCache) {
		t.Fatalf("Serve = %v, want it to wrap %v", err, errCache)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/panel/internal/config"
	"github.com/abelbrown/panel/internal/logging"
	"github.com/abelbrown/panel/internal/mockapi"
	"github.com/abelbrown/panel/internal/otel"
	"github.com/abelbrown/panel/internal/store"
)

// dataDir returns ~/.panel/, creating it if needed.
func dataDir() string {
	dir := config.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	return dir
}

// eventLogPath returns the path to panel.events.jsonl.
func eventLogPath() string {
	return filepath.Join(dataDir(), "panel.events.jsonl")
}

// loadConfig loads path (the default path when empty) and validates it,
// returning a note for every value it had to fix.
func loadConfig(path string) (*config.Config, []string) {
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg, cfg.Validate()
}

func logFixes(fixes []string) {
	for _, fix := range fixes {
		logging.Warn("config value replaced", "fix", fix)
	}
}

// openEventLog opens the JSONL event log for appending, or returns a nil
// logger when events are disabled.
func openEventLog(cfg *config.Config) (*otel.Logger, func()) {
	if !cfg.Log.Events {
		return nil, func() {}
	}
	f, err := os.OpenFile(eventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Warn("event log disabled", "error", err)
		return nil, func() {}
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}
}

// seedStore opens an in-memory store filled with demo data.
func seedStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	seed := cfg.Mock.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := st.Seed(ctx, cfg.Mock.Records, rand.New(rand.NewSource(seed))); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}
	logging.Info("demo data seeded", "records", cfg.Mock.Records, "seed", seed)
	return st, nil
}

// mockServer serves the demo API on ln until stop is called.
type mockServer struct {
	srv  *http.Server
	addr string
}

func startMockServer(ln net.Listener, st *store.Store, cfg *config.Config) *mockServer {
	srv := &http.Server{
		Handler:           mockapi.New(st, mockapi.Options{Latency: cfg.Mock.Latency}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("mock server stopped", "error", err)
		}
	}()
	return &mockServer{srv: srv, addr: ln.Addr().String()}
}

func (s *mockServer) URL() string {
	return "http://" + s.addr
}

func (s *mockServer) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

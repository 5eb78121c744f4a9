package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRunOnceManualUsesScheduler(t *testing.T) {
	t.Parallel()

	sched := &stubScheduler{created: 3}
	cleaned := false
	build := func(cfg AppConfig) (appDeps, func(), error) {
		return appDeps{sched: sched}, func() { cleaned = true }, nil
	}

	created, err := runOnceManual(context.Background(), AppConfig{}, build)
	if err != nil {
		t.Fatalf("runOnceManual error: %v", err)
	}
	if created != 3 || sched.runs != 1 {
		t.Fatalf("expected one scheduler run with 3 created, got %d / %d", created, sched.runs)
	}
	if !cleaned {
		t.Fatalf("cleanup must run after manual import")
	}
}

func TestRunOnceManualFailsWithoutScheduler(t *testing.T) {
	t.Parallel()

	build := func(cfg AppConfig) (appDeps, func(), error) {
		return appDeps{}, func() {}, nil
	}
	if _, err := runOnceManual(context.Background(), AppConfig{}, build); err == nil {
		t.Fatalf("expected error when scheduler disabled")
	}
}

func TestRunOnceManualPropagatesBuildErrors(t *testing.T) {
	t.Parallel()

	build := func(cfg AppConfig) (appDeps, func(), error) {
		return appDeps{}, func() {}, errors.New("init store: boom")
	}
	if _, err := runOnceManual(context.Background(), AppConfig{}, build); err == nil {
		t.Fatalf("expected build error to propagate")
	}
}

func TestLoadConfigReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9090"
database:
  path: "/tmp/hub.db"
search:
  company_limit: 5
scheduler:
  interval: "30m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Database.Path != "/tmp/hub.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Search.CompanyLimit != 5 || cfg.Scheduler.Interval != "30m" {
		t.Fatalf("nested sections not parsed: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestBuildDepsDisablesOptionalFeatures(t *testing.T) {
	t.Parallel()

	cfg := AppConfig{Database: DatabaseConfig{Path: filepath.Join(t.TempDir(), "hub.db")}}
	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		t.Fatalf("buildDeps error: %v", err)
	}
	t.Cleanup(cleanup)

	if deps.sched != nil {
		t.Fatalf("scheduler must be disabled without importer and chat config")
	}
	if deps.handler == nil {
		t.Fatalf("handler must always be built")
	}

	// 未启用的功能返回 503，而不是空指针。
	srv := httptest.NewServer(deps.handler)
	t.Cleanup(srv.Close)
	resp, err := http.Post(srv.URL+"/api/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for disabled refresh, got %d", resp.StatusCode)
	}
}

// --- stubs ---

type stubScheduler struct {
	created int
	runs    int
}

func (s *stubScheduler) RunOnce(ctx context.Context) (int, error) {
	s.runs++
	return s.created, nil
}

func (s *stubScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

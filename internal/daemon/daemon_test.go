package daemon_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/daemon"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
	"github.com/chukwujekwu-code/sermon-hub/internal/testsupport"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *catalog.Record) error { return nil }
func (noopStage) Execute(context.Context, *catalog.Record) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func noopStages() workflow.StageSet {
	return workflow.StageSet{Download: noopStage{}, Transcribe: noopStage{}, Embed: noopStage{}}
}

func newManager(t *testing.T, cfg *config.Config, store *catalog.Store) *workflow.Manager {
	t.Helper()
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.ConfigureStages(noopStages()); err != nil {
		t.Fatalf("ConfigureStages: %v", err)
	}
	return mgr
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	vectors := testsupport.MustOpenVectorStore(t, cfg)
	mgr := newManager(t, cfg, store)

	d, err := daemon.New(cfg, daemon.Deps{Store: store, Vectors: vectors, Workflow: mgr}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID <= 0 {
		t.Fatalf("expected positive PID, got %d", status.PID)
	}
	if !status.Workflow.Running {
		t.Fatal("expected workflow to report running")
	}
	if d.APIAddr() == "" {
		t.Fatal("expected API listener to be bound")
	}
	if _, err := os.Stat(daemon.PIDFilePath(cfg)); err != nil {
		t.Fatalf("expected pid file while running: %v", err)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if _, err := os.Stat(daemon.PIDFilePath(cfg)); !os.IsNotExist(err) {
		t.Fatalf("expected pid file to be removed, got %v", err)
	}
}

func TestDaemonRefusesStartWhenBinariesMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	t.Setenv("PATH", t.TempDir())

	store := testsupport.MustOpenStore(t, cfg)
	mgr := newManager(t, cfg, store)

	d, err := daemon.New(cfg, daemon.Deps{Store: store, Workflow: mgr}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	err = d.Start(context.Background())
	if err == nil {
		d.Stop()
		t.Fatal("expected start to fail without pipeline binaries")
	}
	if !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("unexpected start error: %v", err)
	}
}

func TestDaemonSecondInstanceBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, daemon.Deps{Store: store, Workflow: newManager(t, cfg, store)}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, daemon.Deps{Store: store, Workflow: newManager(t, cfg, store)}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	err = second.Start(ctx)
	if err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected second instance error: %v", err)
	}
}

func TestNewRequiresCoreDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newManager(t, cfg, store)
	logger := logging.NewNop()

	if _, err := daemon.New(nil, daemon.Deps{Store: store, Workflow: mgr}, logger); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := daemon.New(cfg, daemon.Deps{Workflow: mgr}, logger); err == nil {
		t.Fatal("expected error for missing store")
	}
	if _, err := daemon.New(cfg, daemon.Deps{Store: store}, logger); err == nil {
		t.Fatal("expected error for missing workflow manager")
	}
	if _, err := daemon.New(cfg, daemon.Deps{Store: store, Workflow: mgr}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

package main

import (
	"context"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/testsupport"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
)

type nopIndexer struct{}

func (nopIndexer) Index(ctx context.Context, video *catalog.Video, transcript string) (int, error) {
	return 0, nil
}

func TestConfigureStagesBindsPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	manager := workflow.NewManager(cfg, store, logger)
	if err := configureStages(manager, cfg, store, nopIndexer{}, logger); err != nil {
		t.Fatalf("configureStages: %v", err)
	}

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("workflow should not be running before Start")
	}
	for _, name := range []string{"download", "transcribe", "embed"} {
		if _, ok := summary.StageHealth[name]; !ok {
			t.Fatalf("stage %q not registered", name)
		}
	}
}

func TestConfigureStagesRejectsNilManagerInput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	manager := workflow.NewManager(cfg, store, logger)
	err := manager.ConfigureStages(workflow.StageSet{})
	if err == nil {
		t.Fatal("expected error for missing stage handlers")
	}
}

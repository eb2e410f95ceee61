package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/stridescan/stridescan/internal/config"
	"github.com/stridescan/stridescan/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	CreateRun(ctx context.Context, inputLen int) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.AnalyzeResult) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the Store selected by the config driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

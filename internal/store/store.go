package store

import (
	"context"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

// Store persists harvest run records and cached detail fragments.
type Store interface {
	Migrate(ctx context.Context) error

	// Runs
	CreateRun(ctx context.Context, startURL string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, pages, records, failures int) error
	FailRun(ctx context.Context, runID string, message string) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Fragment cache
	GetFragment(ctx context.Context, url string) (string, bool, error)
	PutFragment(ctx context.Context, url, body string) error

	Close() error
}

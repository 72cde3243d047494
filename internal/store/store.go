package store

import (
	"context"

	"github.com/sells-group/firewatch/internal/model"
)

// Store persists the current snapshot of fire detections.
type Store interface {
	// ReplaceAll atomically swaps the whole snapshot for records. Duplicate
	// ids within records keep the last occurrence. Returns the number of rows
	// stored.
	ReplaceAll(ctx context.Context, records []model.FireRecord) (int, error)

	// TopByIntensity returns records by descending brightness, ties in
	// insertion order. A limit <= 0 returns every row.
	TopByIntensity(ctx context.Context, limit int) ([]model.FireRecord, error)
	Count(ctx context.Context) (int, error)
	AllPoints(ctx context.Context) ([]model.FirePoint, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

package main

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/firewatch/internal/fires"
	"github.com/sells-group/firewatch/internal/observability"
	"github.com/sells-group/firewatch/internal/refresh"
	"github.com/sells-group/firewatch/internal/region"
	"github.com/sells-group/firewatch/internal/store"
	"github.com/sells-group/firewatch/internal/summary"
)

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// fireEnv holds the store and the service built on it for one command.
type fireEnv struct {
	Store   store.Store
	Service *fires.Service
}

// Close releases resources held by the environment.
func (fe *fireEnv) Close() {
	if fe.Store != nil {
		_ = fe.Store.Close()
	}
}

// initEnv opens and migrates the store, then wires the refresh, summary and
// region engines. Callers should defer env.Close().
func initEnv(ctx context.Context) (*fireEnv, error) {
	metricsOnce.Do(func() { metrics = observability.NewMetrics() })

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	svc := fires.NewService(
		refresh.New(cfg.Source.FiresPath, st, refresh.WithMetrics(metrics)),
		summary.New(st),
		region.New(cfg.Source.BoundariesPath, st, region.WithMetrics(metrics)),
	)

	zap.L().Debug("environment ready",
		zap.String("store", cfg.Store.Path),
		zap.String("fires", cfg.Source.FiresPath),
		zap.String("boundaries", cfg.Source.BoundariesPath),
	)

	return &fireEnv{Store: st, Service: svc}, nil
}

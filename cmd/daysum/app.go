package main

import (
	"context"
	"fmt"

	"github.com/mycrub/daysum/pkg/cache"
	"github.com/mycrub/daysum/pkg/config"
	"github.com/mycrub/daysum/pkg/httpclient"
	"github.com/mycrub/daysum/pkg/render"
	"github.com/mycrub/daysum/pkg/retrieval"
	"github.com/mycrub/daysum/pkg/service"
	"github.com/mycrub/daysum/pkg/store"
)

// openCache opens the configured store and wraps it in the summary cache.
// The caller closes the returned store.
func (g *globals) openCache() (*cache.Cache, store.Store, error) {
	st, err := store.Open(g.cfg.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	c := cache.New(st,
		cache.WithPrefix(g.cfg.Cache.Prefix),
		cache.WithRetention(g.cfg.Cache.Retention),
		cache.WithLogger(g.logger),
	)
	return c, st, nil
}

// openController builds the full retrieval pipeline. Stale cache entries are
// swept once before the controller is returned.
func (g *globals) openController(ctx context.Context, r render.Renderer) (*retrieval.Controller, *cache.Cache, store.Store, error) {
	c, st, err := g.openCache()
	if err != nil {
		return nil, nil, nil, err
	}

	if removed, err := c.Sweep(ctx); err != nil {
		g.logger.Warn("startup cache sweep failed", "error", err)
	} else if removed > 0 {
		g.logger.Info("startup cache sweep", "removed", removed)
	}

	ctrl := retrieval.New(newServiceClient(g.cfg), c,
		retrieval.WithRenderer(r),
		retrieval.WithLogger(g.logger),
		retrieval.WithPolling(g.cfg.Poll.Interval, g.cfg.Poll.Timeout),
		retrieval.WithMessages(g.cfg.Messages),
	)
	return ctrl, c, st, nil
}

func newServiceClient(cfg *config.Config) *service.Client {
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.HTTP.Timeout
	return service.New(httpclient.New(&hc), cfg.ServiceURL)
}

// startSweeper runs periodic sweeps when a schedule is configured. The
// returned stop function is always safe to call.
func (g *globals) startSweeper(c *cache.Cache) (func(), error) {
	if g.cfg.Cache.SweepSchedule == "" {
		return func() {}, nil
	}
	sw, err := cache.NewSweeper(c, g.cfg.Cache.SweepSchedule, g.logger)
	if err != nil {
		return nil, err
	}
	sw.Start()
	return sw.Stop, nil
}

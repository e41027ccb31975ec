// Package metrics holds the Prometheus instruments shared by the cache and
// the retrieval controller.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheLookups counts cache reads by result: hit, miss, expired, corrupt.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daysum_cache_lookups_total",
			Help: "Summary cache lookups by result",
		},
		[]string{"result"},
	)

	// CacheWrites counts cache writes by result: stored, dropped.
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daysum_cache_writes_total",
			Help: "Summary cache writes by result",
		},
		[]string{"result"},
	)

	CacheSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "daysum_cache_swept_total",
			Help: "Stale or unreadable cache entries removed by sweeps",
		},
	)

	// Sequences counts finished request sequences by terminal state.
	Sequences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daysum_sequences_total",
			Help: "Finished summary request sequences by terminal state",
		},
		[]string{"state"},
	)

	// Fetches counts calls to the summarization endpoint by reported status.
	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daysum_fetches_total",
			Help: "Summarization endpoint calls by reported status",
		},
		[]string{"status"},
	)
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

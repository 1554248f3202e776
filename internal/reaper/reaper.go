// Package reaper deactivates accounts that have not moved money for a while.
package reaper

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"bank/ledger"
)

const (
	DefaultInterval   = 5 * time.Minute
	DefaultStaleAfter = 5 * time.Minute
	DefaultBatchSize  = 100
)

// Store is the part of ledger.Store the reaper uses
type Store interface {
	DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

var _ Store = (ledger.Store)(nil)

type Config struct {
	Store Store
	// time between sweeps
	Interval time.Duration
	// accounts whose last transaction is older than this are deactivated
	StaleAfter time.Duration
	// accounts flipped per store call
	BatchSize int
	Logger    hclog.Logger
	Now       func() time.Time
}

type Reaper struct {
	Config
}

func New(config Config) *Reaper {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = DefaultStaleAfter
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Reaper{Config: config}
}

// Sweep deactivates stale accounts batch by batch until a batch comes back short.
// It returns how many accounts were deactivated, including those from batches
// completed before an error.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := r.Now().Add(-r.StaleAfter)

	total := 0
	for {
		n, err := r.Store.DeactivateStale(ctx, cutoff, r.BatchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < r.BatchSize {
			break
		}
	}

	if total > 0 {
		r.Logger.Info("deactivated stale accounts", "count", total, "cutoff", cutoff)
	}
	return total, nil
}

// Run sweeps every Interval until ctx is done. A failed sweep is logged and
// retried on the next tick.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.Logger.Error("sweep failed", "error", err)
			}
		}
	}
}

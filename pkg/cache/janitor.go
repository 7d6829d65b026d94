package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Janitor periodically sweeps expired entries out of lazily expiring stores.
type Janitor struct {
	interval time.Duration
	targets  []Sweeper
	logger   zerolog.Logger
}

// NewJanitor creates a janitor for the given targets.
func NewJanitor(interval time.Duration, logger zerolog.Logger, targets ...Sweeper) *Janitor {
	return &Janitor{
		interval: interval,
		targets:  targets,
		logger:   logger.With().Str("component", "CacheJanitor").Logger(),
	}
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := 0
			for _, t := range j.targets {
				removed += t.Sweep(now)
			}
			if removed > 0 {
				j.logger.Debug().Int("removed", removed).Msg("Swept expired cache entries.")
			}
		}
	}
}

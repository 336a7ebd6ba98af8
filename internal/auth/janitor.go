package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/aethra/misight/internal/logger"
	"github.com/robfig/cron/v3"
)

// Janitor periodically prunes expired revocations and stale rate-limit entries
type Janitor struct {
	cron    *cron.Cron
	store   *Store
	limiter *LoginRateLimiter
	log     logger.Logger
	timeout time.Duration
}

// NewJanitor schedules the cleanup with a cron spec such as "@every 10m"
func NewJanitor(store *Store, limiter *LoginRateLimiter, log logger.Logger, spec string) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(),
		store:   store,
		limiter: limiter,
		log:     log,
		timeout: 30 * time.Second,
	}
	if _, err := j.cron.AddFunc(spec, j.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", spec, err)
	}
	return j, nil
}

// Start runs the schedule in the background
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running cleanup to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce performs one cleanup pass
func (j *Janitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	pruned, err := j.store.PruneRevoked(ctx)
	if err != nil {
		j.log.Errorw("prune revoked tokens failed", "error", err)
	}
	swept := j.limiter.Sweep()
	j.log.Debugw("janitor pass", "revoked_pruned", pruned, "limiter_swept", swept)
}

// Package reconcile removes stored images that no property references any more.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"propertyapi/internal/asset"
	"propertyapi/internal/storage"
)

// ErrAlreadyRunning is returned by RunOnce while another sweep is in progress.
var ErrAlreadyRunning = errors.New("sweep already running")

// References lists every image URL held by a property record.
type References interface {
	ImageURLs(ctx context.Context) ([]string, error)
}

// Assets is the part of the asset manager a sweep needs.
type Assets interface {
	Objects(ctx context.Context) ([]storage.ObjectInfo, error)
	Key(url string) (string, bool)
	RemoveKeys(ctx context.Context, keys []string) asset.ReclaimResult
}

// Result summarizes one sweep.
type Result struct {
	Scanned    int
	Referenced int
	Orphaned   int
	Removed    int
	Failed     int
}

// Sweeper deletes orphaned objects older than a grace period, on demand or on a cron schedule.
type Sweeper struct {
	refs   References
	assets Assets
	grace  time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewSweeper creates a Sweeper. Objects younger than grace are never removed, so uploads whose
// record is still being written survive.
func NewSweeper(refs References, assets Assets, grace time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		refs:   refs,
		assets: assets,
		grace:  grace,
		logger: logger.With(slog.String("component", "reconcile")),
		now:    time.Now,
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrAlreadyRunning
	}
	defer s.mu.Unlock()

	start := time.Now()
	var res Result

	urls, err := s.refs.ImageURLs(ctx)
	if err != nil {
		return res, fmt.Errorf("load referenced images: %w", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if key, ok := s.assets.Key(u); ok {
			referenced[key] = struct{}{}
		}
	}
	res.Referenced = len(referenced)

	objs, err := s.assets.Objects(ctx)
	if err != nil {
		return res, fmt.Errorf("list stored images: %w", err)
	}
	res.Scanned = len(objs)

	cutoff := s.now().Add(-s.grace)
	var orphans []string
	for _, o := range objs {
		if _, ok := referenced[o.Key]; ok {
			continue
		}
		if o.LastModified.After(cutoff) {
			continue
		}
		orphans = append(orphans, o.Key)
	}
	res.Orphaned = len(orphans)

	r := s.assets.RemoveKeys(ctx, orphans)
	res.Removed, res.Failed = r.Removed, r.Failed

	s.logger.Info("reconcile_sweep",
		slog.Int("scanned", res.Scanned),
		slog.Int("referenced", res.Referenced),
		slog.Int("orphaned", res.Orphaned),
		slog.Int("removed", res.Removed),
		slog.Int("failed", res.Failed),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

// Start schedules sweeps with a standard cron spec (or descriptors such as "@every 1h").
func (s *Sweeper) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("reconcile_sweep_failed", slog.String("error_message", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("reconcile_scheduled", slog.String("schedule", spec), slog.Duration("grace", s.grace))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.cron = nil
}

package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pixeltrack/api/metrics"
	"pixeltrack/api/models"
)

const rollupTimeout = 2 * time.Minute

// RollupSource computes daily aggregates from the primary store.
type RollupSource interface {
	DailyAggregate(ctx context.Context, pixelID string, day time.Time) (models.DailyAggregate, error)
}

// PixelLister lists the pixels that are still collecting beacons.
type PixelLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// RollupSink persists computed aggregates. Writing the same (pixel, date)
// again replaces the earlier row.
type RollupSink interface {
	WriteDailyAggregates(ctx context.Context, aggs []models.DailyAggregate) error
}

// Roller periodically recomputes the daily aggregates for today and
// yesterday so late beacons around midnight are picked up.
type Roller struct {
	source   RollupSource
	pixels   PixelLister
	sink     RollupSink
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRoller(source RollupSource, pixels PixelLister, sink RollupSink, interval time.Duration, logger *zap.Logger) *Roller {
	return &Roller{
		source:   source,
		pixels:   pixels,
		sink:     sink,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// RollupDay recomputes and stores the aggregate of day for every active
// pixel. A pixel that fails to aggregate is skipped; the others are still
// written.
func (r *Roller) RollupDay(ctx context.Context, day time.Time) error {
	day = utcDate(day)

	ids, err := r.pixels.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active pixels: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	var errs []error
	computedAt := r.now().UTC()
	aggs := make([]models.DailyAggregate, 0, len(ids))
	for _, id := range ids {
		agg, err := r.source.DailyAggregate(ctx, id, day)
		if err != nil {
			errs = append(errs, fmt.Errorf("aggregate pixel %s: %w", id, err))
			continue
		}
		agg.ComputedAt = computedAt
		aggs = append(aggs, agg)
	}

	if len(aggs) > 0 {
		if err := r.sink.WriteDailyAggregates(ctx, aggs); err != nil {
			errs = append(errs, fmt.Errorf("write rollups: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Start runs a rollup immediately and then every interval until Stop is
// called or ctx is cancelled.
func (r *Roller) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (r *Roller) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Roller) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.run(ctx)
	for {
		select {
		case <-ticker.C:
			r.run(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Roller) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, rollupTimeout)
	defer cancel()

	start := time.Now()
	today := utcDate(r.now())
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		if err := r.RollupDay(ctx, day); err != nil {
			metrics.RollupRuns.WithLabelValues("failed").Inc()
			r.logger.Error("Daily rollup failed",
				zap.Time("date", day),
				zap.Error(err),
			)
			continue
		}
		metrics.RollupRuns.WithLabelValues("ok").Inc()
	}
	r.logger.Debug("Daily rollup finished", zap.Duration("took", time.Since(start)))
}

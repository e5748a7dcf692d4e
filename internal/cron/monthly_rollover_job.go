package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threadlinehq/threadline-backend/pkg/logger"
)

const rolloverMarkerTTL = 35 * 24 * time.Hour

type counterRoller interface {
	RolloverMonthlyCounts(ctx context.Context) (int64, error)
}

type markerStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CounterKey(name string) string
}

// MonthlyRolloverJobParams configure the month-boundary reset job.
type MonthlyRolloverJobParams struct {
	Logger  *logger.Logger
	Parties counterRoller
	Marker  markerStore
	Now     func() time.Time
}

// NewMonthlyRolloverJob builds the job that starts every party's monthly
// order count from zero on the first cron cycle of a new calendar month.
func NewMonthlyRolloverJob(params MonthlyRolloverJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Parties == nil {
		return nil, fmt.Errorf("party service required")
	}
	if params.Marker == nil {
		return nil, fmt.Errorf("marker store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &monthlyRolloverJob{
		logg:    params.Logger,
		parties: params.Parties,
		marker:  params.Marker,
		now:     now,
	}, nil
}

type monthlyRolloverJob struct {
	logg    *logger.Logger
	parties counterRoller
	marker  markerStore
	now     func() time.Time
}

func (j *monthlyRolloverJob) Name() string { return "monthly-rollover" }

// Run resets counters at most once per calendar month. The cron loop fires
// hourly; a marker key records the last month handled so in-month cycles are
// cheap no-ops, and a worker that was down over the boundary catches up on
// its next cycle.
func (j *monthlyRolloverJob) Run(ctx context.Context) error {
	month := j.now().UTC().Format("2006-01")
	key := j.marker.CounterKey("monthly_rollover")

	last, err := j.marker.Get(ctx, key)
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read rollover marker: %w", err)
	}
	if last == month {
		return nil
	}

	affected, err := j.parties.RolloverMonthlyCounts(ctx)
	if err != nil {
		return fmt.Errorf("rollover monthly counts: %w", err)
	}

	if err := j.marker.Set(ctx, key, month, rolloverMarkerTTL); err != nil {
		// The reset itself succeeded; a rerun next cycle resets already
		// zeroed counters, which is harmless.
		j.logg.Error(ctx, "failed to write rollover marker", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"month":   month,
		"parties": affected,
	})
	j.logg.Info(logCtx, "monthly order counts rolled over")
	return nil
}

package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRoller struct {
	calls    int
	affected int64
	err      error
}

func (f *fakeRoller) RolloverMonthlyCounts(ctx context.Context) (int64, error) {
	f.calls++
	return f.affected, f.err
}

type fakeMarkerStore struct {
	values map[string]string
	getErr error
}

func newFakeMarkerStore() *fakeMarkerStore {
	return &fakeMarkerStore{values: map[string]string{}}
}

func (f *fakeMarkerStore) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeMarkerStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeMarkerStore) CounterKey(name string) string {
	return "tl:counter:" + name
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMonthlyRolloverRunsOncePerMonth(t *testing.T) {
	roller := &fakeRoller{affected: 12}
	marker := newFakeMarkerStore()
	job, err := NewMonthlyRolloverJob(MonthlyRolloverJobParams{
		Logger:  testLogger(),
		Parties: roller,
		Marker:  marker,
		Now:     fixedClock(time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if roller.calls != 1 {
		t.Fatalf("expected one rollover per month, got %d", roller.calls)
	}
	if marker.values["tl:counter:monthly_rollover"] != "2026-03" {
		t.Fatalf("unexpected marker %q", marker.values["tl:counter:monthly_rollover"])
	}
}

func TestMonthlyRolloverFiresAgainNextMonth(t *testing.T) {
	roller := &fakeRoller{}
	marker := newFakeMarkerStore()
	marker.values["tl:counter:monthly_rollover"] = "2026-02"

	job, err := NewMonthlyRolloverJob(MonthlyRolloverJobParams{
		Logger:  testLogger(),
		Parties: roller,
		Marker:  marker,
		Now:     fixedClock(time.Date(2026, time.March, 1, 1, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if roller.calls != 1 {
		t.Fatalf("expected rollover at month boundary, got %d calls", roller.calls)
	}
}

func TestMonthlyRolloverPropagatesResetFailure(t *testing.T) {
	roller := &fakeRoller{err: errors.New("db down")}
	marker := newFakeMarkerStore()

	job, err := NewMonthlyRolloverJob(MonthlyRolloverJobParams{
		Logger:  testLogger(),
		Parties: roller,
		Marker:  marker,
		Now:     fixedClock(time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected failure to propagate")
	}
	if _, ok := marker.values["tl:counter:monthly_rollover"]; ok {
		t.Fatal("marker must not be written when the reset fails")
	}
}

func TestMonthlyRolloverPropagatesMarkerReadFailure(t *testing.T) {
	marker := newFakeMarkerStore()
	marker.getErr = errors.New("redis down")

	job, err := NewMonthlyRolloverJob(MonthlyRolloverJobParams{
		Logger:  testLogger(),
		Parties: &fakeRoller{},
		Marker:  marker,
		Now:     time.Now,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected marker read failure to propagate")
	}
}

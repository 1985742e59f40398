package worker

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
)

var sweepNow = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

type fakeVessels struct {
	tracking map[string]int64
	listErr  error
}

func (f *fakeVessels) Create(context.Context, *domain.Vessel) error { return nil }
func (f *fakeVessels) GetByID(context.Context, string) (*domain.Vessel, error) {
	return nil, pgx.ErrNoRows
}
func (f *fakeVessels) ListByUser(context.Context, string) ([]domain.Vessel, error) { return nil, nil }
func (f *fakeVessels) SetTracking(context.Context, string, bool) error             { return nil }

func (f *fakeVessels) DeactivateTrackingForUser(_ context.Context, userID string) (int64, error) {
	n := f.tracking[userID]
	delete(f.tracking, userID)
	return n, nil
}

func (f *fakeVessels) ListUsersWithActiveTracking(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.tracking))
	for id := range f.tracking {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeReader map[string]subscription.Record

func (f fakeReader) GetSubscription(_ context.Context, userID string) (*subscription.Record, error) {
	if userID == "broken" {
		return nil, errors.New("timeout")
	}
	rec, ok := f[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rec, nil
}

type recordingPauser struct {
	vessels *fakeVessels
	calls   []string
}

func (p *recordingPauser) PauseTracking(ctx context.Context, userID string, reason events.TrackingPausedReason) (int64, error) {
	if reason != events.TrackingPausedBySweep {
		return 0, errors.New("unexpected reason")
	}
	p.calls = append(p.calls, userID)
	return p.vessels.DeactivateTrackingForUser(ctx, userID)
}

func TestTrackingSweeper_PausesOnlyLapsedUsers(t *testing.T) {
	future := sweepNow.Add(time.Hour)
	past := sweepNow.Add(-time.Hour)

	vessels := &fakeVessels{tracking: map[string]int64{
		"active":   1,
		"trial":    1,
		"lapsed":   2,
		"inactive": 1,
		"broken":   1,
		"deleted":  1,
	}}
	reader := fakeReader{
		"active":   {Status: "active", ExpiresAt: &future},
		"trial":    {Status: "trial"},
		"lapsed":   {Status: "active", ExpiresAt: &past},
		"inactive": {},
	}
	pauser := &recordingPauser{vessels: vessels}
	metrics := observability.NewMetrics()

	sweeper := NewTrackingSweeper(vessels, reader, pauser, metrics, nil)
	sweeper.now = func() time.Time { return sweepNow }

	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	want := SweepResult{UsersChecked: 6, UsersLapsed: 2, VesselsPaused: 3, Failures: 1}
	if result != want {
		t.Errorf("result = %+v, want %+v", result, want)
	}
	if len(pauser.calls) != 2 || pauser.calls[0] != "inactive" || pauser.calls[1] != "lapsed" {
		t.Errorf("paused users = %v", pauser.calls)
	}
	if _, still := vessels.tracking["active"]; !still {
		t.Error("active user's tracking must be left alone")
	}
	if snap := metrics.Snapshot(); snap.SweepRuns != 1 || snap.VesselsPaused != 3 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestTrackingSweeper_ListFailure(t *testing.T) {
	vessels := &fakeVessels{listErr: errors.New("db down")}
	sweeper := NewTrackingSweeper(vessels, fakeReader{}, &recordingPauser{vessels: vessels}, nil, nil)
	if _, err := sweeper.Sweep(context.Background()); err == nil {
		t.Fatal("expected list error to surface")
	}
}

func TestTrackingSweeper_SkipsOverlappingRun(t *testing.T) {
	vessels := &fakeVessels{tracking: map[string]int64{"inactive": 1}}
	pauser := &recordingPauser{vessels: vessels}
	sweeper := NewTrackingSweeper(vessels, fakeReader{"inactive": {}}, pauser, nil, nil)

	sweeper.running.Store(true)
	result, err := sweeper.Sweep(context.Background())
	if err != nil || result != (SweepResult{}) || len(pauser.calls) != 0 {
		t.Errorf("overlapping sweep should be a no-op, got %+v, %v", result, err)
	}
}

func TestTrackingSweeper_StartRejectsBadSchedule(t *testing.T) {
	sweeper := NewTrackingSweeper(&fakeVessels{}, fakeReader{}, &recordingPauser{}, nil, nil)
	if err := sweeper.Start("every tuesday-ish"); err == nil {
		t.Fatal("expected schedule parse error")
	}
	<-sweeper.Stop().Done()
}

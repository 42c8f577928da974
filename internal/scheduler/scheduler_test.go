package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/alejandrodnm/pratracker/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	mu       sync.Mutex
	calls    int
	lookback int
	err      error
}

func (f *fakeSyncer) Sync(_ context.Context, lookback int) (domain.SyncReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lookback = lookback
	return domain.SyncReport{RunID: "run-1", Checked: 2}, f.err
}

type fakeBoard struct{}

func (fakeBoard) Today(context.Context) (domain.LiveBoard, error) {
	return domain.LiveBoard{State: domain.TrackingUpcoming}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	syncs   []domain.SyncReport
	boards  []domain.LiveBoard
	reports int
}

func (n *fakeNotifier) NotifySync(_ context.Context, r domain.SyncReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.syncs = append(n.syncs, r)
	return nil
}

func (n *fakeNotifier) NotifyLive(_ context.Context, b domain.LiveBoard) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.boards = append(n.boards, b)
	return nil
}

func (n *fakeNotifier) NotifyReport(context.Context, domain.PerformanceReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports++
	return nil
}

func TestScheduler_RegisterAll(t *testing.T) {
	s := scheduler.NewScheduler(context.Background(), time.UTC, &fakeSyncer{}, fakeBoard{}, &fakeNotifier{}, 3)
	require.NoError(t, s.RegisterAll("0 0 10 * * *", "0 */2 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)
}

func TestScheduler_LiveJobOptional(t *testing.T) {
	s := scheduler.NewScheduler(context.Background(), time.UTC, &fakeSyncer{}, nil, &fakeNotifier{}, 3)
	require.NoError(t, s.RegisterAll("0 0 10 * * *", "0 */2 * * * *"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := scheduler.NewScheduler(context.Background(), time.UTC, &fakeSyncer{}, nil, &fakeNotifier{}, 3)
	err := s.RegisterAll("not a cron", "")
	assert.Error(t, err)
}

func TestScheduler_RunSyncNowNotifies(t *testing.T) {
	syncer := &fakeSyncer{}
	n := &fakeNotifier{}
	s := scheduler.NewScheduler(context.Background(), time.UTC, syncer, nil, n, 5)

	s.RunSyncNow()

	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, 5, syncer.lookback)
	require.Len(t, n.syncs, 1)
	assert.Equal(t, "run-1", n.syncs[0].RunID)
}

func TestScheduler_FailedSyncNotNotified(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("store down")}
	n := &fakeNotifier{}
	s := scheduler.NewScheduler(context.Background(), time.UTC, syncer, nil, n, 3)

	s.RunSyncNow()

	assert.Equal(t, 1, syncer.calls)
	assert.Empty(t, n.syncs)
}

func TestScheduler_RunsEverySecond(t *testing.T) {
	syncer := &fakeSyncer{}
	s := scheduler.NewScheduler(context.Background(), time.UTC, syncer, nil, &fakeNotifier{}, 3)
	require.NoError(t, s.RegisterAll("* * * * * *", ""))

	s.Start()
	assert.Eventually(t, func() bool {
		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		return syncer.calls > 0
	}, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/alejandrodnm/pratracker/internal/ports"
)

// Syncer es la parte del orquestador que usa el scheduler.
type Syncer interface {
	Sync(ctx context.Context, lookbackDays int) (domain.SyncReport, error)
}

// LiveBoard construye el tablero del día.
type LiveBoard interface {
	Today(ctx context.Context) (domain.LiveBoard, error)
}

// Scheduler gestiona las tareas cron: sync diario y tablero en vivo.
type Scheduler struct {
	Cron     *cron.Cron
	Syncer   Syncer
	Board    LiveBoard // nil desactiva el job en vivo
	Notifier ports.Notifier
	Lookback int
	Ctx      context.Context
}

// NewScheduler crea un Scheduler con specs de 6 campos (con segundos) en loc.
// Una ejecución que sigue en curso hace que la siguiente se salte.
func NewScheduler(ctx context.Context, loc *time.Location, syncer Syncer, board LiveBoard, notifier ports.Notifier, lookback int) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		Syncer:   syncer,
		Board:    board,
		Notifier: notifier,
		Lookback: lookback,
		Ctx:      ctx,
	}
}

// RegisterAll registra el sync diario y, si liveCron no está vacío, el tablero en vivo.
func (s *Scheduler) RegisterAll(syncCron, liveCron string) error {
	if _, err := s.Cron.AddFunc(syncCron, s.syncTask); err != nil {
		return fmt.Errorf("scheduler.RegisterAll: sync task %q: %w", syncCron, err)
	}
	if liveCron == "" || s.Board == nil {
		return nil
	}
	if _, err := s.Cron.AddFunc(liveCron, s.liveTask); err != nil {
		return fmt.Errorf("scheduler.RegisterAll: live task %q: %w", liveCron, err)
	}
	return nil
}

// Start arranca el cron en su propia goroutine.
func (s *Scheduler) Start() {
	s.Cron.Start()
	slog.Info("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop detiene el cron y espera a que terminen los jobs en curso.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunSyncNow ejecuta el sync inmediatamente (arranque o trigger manual).
func (s *Scheduler) RunSyncNow() {
	s.syncTask()
}

func (s *Scheduler) syncTask() {
	report, err := s.Syncer.Sync(s.Ctx, s.Lookback)
	if err != nil {
		slog.Error("scheduled sync failed", "run_id", report.RunID, "err", err)
		return
	}
	if err := s.Notifier.NotifySync(s.Ctx, report); err != nil {
		slog.Error("notify sync", "err", err)
	}
}

func (s *Scheduler) liveTask() {
	board, err := s.Board.Today(s.Ctx)
	if err != nil {
		slog.Error("live board failed", "err", err)
		return
	}
	if err := s.Notifier.NotifyLive(s.Ctx, board); err != nil {
		slog.Error("notify live", "err", err)
	}
}

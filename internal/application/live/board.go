package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/alejandrodnm/pratracker/internal/ports"
)

// Config contiene la configuración del tablero en vivo.
type Config struct {
	Thresholds domain.LiveThresholds
	Location   *time.Location
	Workers    int // box scores en paralelo (0 = 4)
}

// Board une las apuestas del día con los box scores en curso.
type Board struct {
	cfg      Config
	provider ports.StatsProvider
	store    ports.BetStore
	cache    ports.SnapshotCache
	now      func() time.Time
}

// New crea un Board. cache puede ser nil (sin cache).
func New(cfg Config, provider ports.StatsProvider, store ports.BetStore, cache ports.SnapshotCache) *Board {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Thresholds == (domain.LiveThresholds{}) {
		cfg.Thresholds = domain.DefaultLiveThresholds()
	}
	return &Board{
		cfg:      cfg,
		provider: provider,
		store:    store,
		cache:    cache,
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj usado por Today.
func (b *Board) SetClock(now func() time.Time) {
	b.now = now
}

// Today construye el tablero de la fecha actual en la zona configurada.
func (b *Board) Today(ctx context.Context) (domain.LiveBoard, error) {
	return b.Build(ctx, domain.CivilDate(b.now().In(b.cfg.Location)))
}

// Build construye el tablero de una fecha. Si el proveedor falla, las
// apuestas se muestran como no empezadas en lugar de devolver error.
func (b *Board) Build(ctx context.Context, date time.Time) (domain.LiveBoard, error) {
	date = domain.CivilDate(date)
	board := domain.LiveBoard{Date: date}

	bets, err := b.store.ListBetsByDate(ctx, date)
	if err != nil {
		return board, fmt.Errorf("live.Build: load bets: %w", err)
	}
	if len(bets) == 0 {
		board.State = domain.TrackingNoBets
		return board, nil
	}

	snaps, err := b.snapshots(ctx, date)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return board, ctxErr
		}
		slog.Warn("live stats unavailable, showing bets as not started",
			"date", date.Format(domain.DateLayout),
			"err", err,
		)
	}

	players := make(map[int]*domain.GameSnapshot)
	for i := range snaps {
		board.Games = append(board.Games, snaps[i].Game)
		for id := range snaps[i].Players {
			players[id] = &snaps[i]
		}
	}

	for _, bet := range bets {
		lb, err := b.classify(bet, players[bet.PlayerID])
		if err != nil {
			slog.Warn("cannot classify bet", "bet", bet.Key().String(), "err", err)
			continue
		}
		board.Bets = append(board.Bets, lb)

		switch {
		case lb.Game == nil || lb.Game.Status == domain.GameNotStarted:
			board.Pending++
		case lb.Game.Status == domain.GameLive:
			board.Live++
		case lb.Game.Status == domain.GameFinished:
			board.Finished++
		}
		if lb.Live.Status == domain.LiveHit {
			board.Hits++
		}
	}

	board.State = domain.TrackingStateOf(len(board.Bets), board.Live, board.Pending, board.Finished)
	return board, nil
}

func (b *Board) classify(bet domain.Bet, snap *domain.GameSnapshot) (domain.LiveBet, error) {
	lb := domain.LiveBet{Bet: bet}

	in := domain.LiveInput{Status: domain.GameNotStarted}
	if snap != nil {
		game := snap.Game
		lb.Game = &game
		in = snap.LiveInput(bet.PlayerID)
		lb.CurrentPRA = in.CurrentPRA
		lb.Minutes = in.MinutesPlayed
	}

	res, err := domain.ClassifyLive(bet.Terms(), in, b.cfg.Thresholds)
	if err != nil {
		return lb, err
	}
	lb.Live = res
	return lb, nil
}

// snapshots devuelve un snapshot por partido de la fecha. Los partidos no
// empezados no tienen box score; se devuelven sin jugadores.
func (b *Board) snapshots(ctx context.Context, date time.Time) ([]domain.GameSnapshot, error) {
	games, err := b.provider.FetchGames(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("live.snapshots: %w", err)
	}

	out := make([]domain.GameSnapshot, len(games))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for i, game := range games {
		if game.Status == domain.GameNotStarted {
			out[i] = domain.GameSnapshot{Game: game}
			continue
		}
		g.Go(func() error {
			snap, err := b.snapshot(gctx, game)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("box score unavailable", "game_id", game.ID, "err", err)
				snap = domain.GameSnapshot{Game: game}
			}
			if snap.Game.Date.IsZero() {
				snap.Game.Date = game.Date
			}
			mu.Lock()
			out[i] = snap
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Game.ID < out[j].Game.ID })
	return out, nil
}

// snapshot lee el box score de la cache o del proveedor.
func (b *Board) snapshot(ctx context.Context, game domain.Game) (domain.GameSnapshot, error) {
	if b.cache != nil {
		snap, err := b.cache.GetSnapshot(ctx, game.ID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Debug("snapshot cache read failed", "game_id", game.ID, "err", err)
		}
	}

	snap, err := b.provider.FetchBoxScore(ctx, game.ID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}

	if b.cache != nil {
		if err := b.cache.SetSnapshot(ctx, snap); err != nil {
			slog.Debug("snapshot cache write failed", "game_id", game.ID, "err", err)
		}
	}
	return snap, nil
}

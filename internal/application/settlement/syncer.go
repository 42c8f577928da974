package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/alejandrodnm/pratracker/internal/ports"
)

// Estados de una ejecución, usados como label de métricas.
const (
	statusOK        = "ok"
	statusPartial   = "partial"
	statusError     = "error"
	statusCancelled = "cancelled"
)

// Config contiene la configuración del orquestador de resultados.
type Config struct {
	LookbackDays int
	MaxRetries   int           // reintentos por llamada al proveedor (2 = 3 intentos)
	RetryDelay   time.Duration // delay fijo entre intentos
	Workers      int           // goroutines para box scores (0 = 4)
	Location     *time.Location
	Policy       domain.SettlementPolicy
	Ledger       domain.LedgerConfig
	ByDateLimit  int
}

// DefaultConfig devuelve la configuración de producción.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return Config{
		LookbackDays: 3,
		MaxRetries:   2,
		RetryDelay:   2 * time.Second,
		Workers:      defaultWorkers,
		Location:     loc,
		Policy:       domain.DefaultSettlementPolicy(),
		Ledger:       domain.DefaultLedgerConfig(),
		ByDateLimit:  domain.DefaultByDateLimit,
	}
}

// Syncer liquida las apuestas pendientes con los box scores del proveedor
// y reconstruye el ledger de bankroll.
type Syncer struct {
	cfg      Config
	provider ports.StatsProvider
	store    ports.BetStore
	metrics  ports.SyncMetrics
	now      func() time.Time

	// ledgerMu serializa rebuild + replace del daily_summary.
	// Nunca se mantiene durante llamadas al proveedor.
	ledgerMu sync.Mutex
}

// New crea un Syncer con las dependencias inyectadas. metrics puede ser nil.
func New(cfg Config, provider ports.StatsProvider, store ports.BetStore, metrics ports.SyncMetrics) *Syncer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Policy.Push == "" {
		cfg.Policy = domain.DefaultSettlementPolicy()
	}
	if cfg.Ledger.Payout.WinRatio == 0 {
		cfg.Ledger = domain.DefaultLedgerConfig()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Syncer{
		cfg:      cfg,
		provider: provider,
		store:    store,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests y re-ejecuciones de fechas pasadas).
func (s *Syncer) SetClock(now func() time.Time) {
	s.now = now
}

// Today devuelve la fecha civil actual en la zona configurada.
func (s *Syncer) Today() time.Time {
	return domain.CivilDate(s.now().In(s.cfg.Location))
}

// Sync liquida las apuestas PENDING de los últimos lookbackDays días.
//
// Cada commit es independiente: si el contexto se cancela a mitad, lo ya
// guardado se queda y se devuelve ctx.Err() junto al reporte parcial.
func (s *Syncer) Sync(ctx context.Context, lookbackDays int) (report domain.SyncReport, err error) {
	start := time.Now()
	report.RunID = uuid.New().String()

	if lookbackDays < 0 {
		return report, fmt.Errorf("settlement.Sync: %w: lookback days %d", domain.ErrInputContract, lookbackDays)
	}

	today := s.Today()
	report.To = today
	report.From = today.AddDate(0, 0, -lookbackDays)

	log := slog.With("run_id", report.RunID)
	log.Info("sync starting",
		"from", report.From.Format(domain.DateLayout),
		"to", report.To.Format(domain.DateLayout),
	)

	status := statusOK
	defer func() {
		report.Duration = time.Since(start)
		s.metrics.ObserveSync(status, report.Duration)
	}()

	pending, err := s.store.ListPendingBets(ctx, report.From, report.To)
	if err != nil {
		status = statusError
		return report, fmt.Errorf("settlement.Sync: load pending bets: %w", err)
	}
	report.Checked = len(pending)

	for _, group := range groupByDate(pending) {
		if err := ctx.Err(); err != nil {
			status = statusCancelled
			return report, err
		}
		if err := s.syncDate(ctx, log, group.date, group.bets, today, &report); err != nil {
			if ctx.Err() != nil {
				status = statusCancelled
			} else {
				status = statusError
			}
			return report, err
		}
	}

	ledger, err := s.RebuildLedger(ctx)
	if err != nil {
		status = statusError
		return report, fmt.Errorf("settlement.Sync: %w", err)
	}
	report.Bankroll = ledger.Final()

	if len(report.Deferred) > 0 {
		status = statusPartial
	}

	log.Info("sync complete",
		"checked", report.Checked,
		"updated", report.Updated(),
		"deferred", len(report.Deferred),
		"ambiguous", len(report.Ambiguous),
		"bankroll", report.Bankroll,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// syncDate procesa las apuestas de una fecha. Solo devuelve error cuando el
// contexto se cancela; los fallos del proveedor difieren partidos.
func (s *Syncer) syncDate(
	ctx context.Context,
	log *slog.Logger,
	date time.Time,
	bets []domain.Bet,
	today time.Time,
	report *domain.SyncReport,
) error {
	retry := retryPolicy{maxRetries: s.cfg.MaxRetries, delay: s.cfg.RetryDelay}
	dateStr := date.Format(domain.DateLayout)

	games, err := withRetry(ctx, retry, "games "+dateStr,
		func(ctx context.Context) ([]domain.Game, error) {
			return s.provider.FetchGames(ctx, date)
		})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("scoreboard unavailable, deferring date", "date", dateStr, "bets", len(bets), "err", err)
		report.Deferred = append(report.Deferred, domain.DeferredGame{Date: date, Err: err.Error()})
		s.metrics.IncDeferred()
		return nil
	}

	// Un partido que sigue sin empezar en una fecha ya pasada se ha
	// aplazado: no se jugará ese día y no bloquea el DNP del resto.
	past := date.Before(today)
	var finished []domain.Game
	postponed := 0
	for _, g := range games {
		switch {
		case g.Status == domain.GameFinished:
			finished = append(finished, g)
		case g.Status == domain.GameNotStarted && past:
			postponed++
			log.Info("game not played on its date, treating as postponed",
				"date", dateStr,
				"game_id", g.ID,
				"matchup", g.Matchup(),
			)
		}
	}

	lines := make(map[int]domain.PlayerLine)
	complete := len(games) > 0 && len(finished)+postponed == len(games)

	if len(finished) > 0 {
		results := fetchBoxScoresConcurrent(ctx, s.provider, finished, retry, s.cfg.Workers)
		if err := ctx.Err(); err != nil {
			return err
		}

		// Orden estable para que el reporte sea determinista.
		sort.Slice(results, func(i, j int) bool { return results[i].game.ID < results[j].game.ID })

		for _, r := range results {
			if r.err != nil {
				log.Warn("box score unavailable, deferring game", "date", dateStr, "game_id", r.game.ID, "err", r.err)
				report.Deferred = append(report.Deferred, domain.DeferredGame{Date: date, GameID: r.game.ID, Err: r.err.Error()})
				s.metrics.IncDeferred()
				complete = false
				continue
			}
			if r.snap.Game.Status != domain.GameFinished {
				// el scoreboard va por delante del box score
				complete = false
				continue
			}
			for id, line := range r.snap.Players {
				lines[id] = line
			}
		}
	}

	// Un jugador ausente solo cuenta como DNP en fechas pasadas cuyos
	// partidos se han descargado y terminado (o aplazado) todos.
	dnpEligible := complete && past

	for _, bet := range bets {
		if err := ctx.Err(); err != nil {
			return err
		}

		obs, ok := s.observe(log, bet, lines, dnpEligible, report)
		if !ok {
			continue
		}
		if err := s.settle(ctx, log, bet, obs, report); err != nil {
			return err
		}
	}
	return nil
}

// observe resuelve la observación de una apuesta. ok=false deja la apuesta PENDING.
func (s *Syncer) observe(
	log *slog.Logger,
	bet domain.Bet,
	lines map[int]domain.PlayerLine,
	dnpEligible bool,
	report *domain.SyncReport,
) (domain.Observation, bool) {
	line, found := lines[bet.PlayerID]
	if found {
		obs := line.Observation()
		if obs.Ambiguous() {
			log.Warn("ambiguous observation, bet stays pending",
				"bet", bet.Key().String(),
				"player", bet.PlayerName,
				"err", domain.ErrAmbiguousObservation,
			)
			report.Ambiguous = append(report.Ambiguous, bet.Key())
			return domain.Observation{}, false
		}
		if obs.PRA != nil {
			return obs, true
		}
		// listado sin estadísticas: mismo trato que ausente
	}

	if !dnpEligible {
		return domain.Observation{}, false
	}
	log.Debug("player absent from finished games, voiding as DNP",
		"bet", bet.Key().String(),
		"player", bet.PlayerName,
	)
	return domain.Observation{PRA: domain.Float(0), Minutes: domain.Float(0)}, true
}

// settle clasifica y guarda una apuesta. Solo devuelve error si el contexto
// se cancela; los errores de contrato se registran y la apuesta se salta.
func (s *Syncer) settle(
	ctx context.Context,
	log *slog.Logger,
	bet domain.Bet,
	obs domain.Observation,
	report *domain.SyncReport,
) error {
	key := bet.Key()

	result, err := domain.Settle(bet.Terms(), obs, s.cfg.Policy)
	if err != nil {
		log.Warn("cannot settle bet, skipping", "bet", key.String(), "err", err)
		return nil
	}
	if result == domain.ResultPending || result == bet.Result {
		return nil
	}

	if err := s.store.SaveBetResult(ctx, key, obs.PRA, obs.Minutes, result); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, domain.ErrInputContract) {
			log.Warn("store refused result, skipping", "bet", key.String(), "result", result, "err", err)
		} else {
			log.Error("save bet result failed", "bet", key.String(), "err", err)
		}
		return nil
	}

	report.Transitions = append(report.Transitions, domain.Transition{
		Key:        key,
		PlayerName: bet.PlayerName,
		Old:        bet.Result,
		New:        result,
		ActualPRA:  obs.PRA,
		Minutes:    obs.Minutes,
	})
	s.metrics.IncTransition(string(result))

	log.Info("bet settled",
		"bet", key.String(),
		"player", bet.PlayerName,
		"line", bet.BettingLine,
		"direction", bet.Direction,
		"result", result,
	)
	return nil
}

// RebuildLedger recalcula el ledger desde todas las apuestas y reemplaza
// la tabla daily_summary.
func (s *Syncer) RebuildLedger(ctx context.Context) (domain.Ledger, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	bets, err := s.store.ListBets(ctx)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("settlement.RebuildLedger: load bets: %w", err)
	}
	ledger, err := domain.RebuildLedger(bets, s.cfg.Ledger)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("settlement.RebuildLedger: %w", err)
	}
	if err := s.store.ReplaceDailySummaries(ctx, ledger.Days); err != nil {
		return domain.Ledger{}, fmt.Errorf("settlement.RebuildLedger: %w", err)
	}

	s.metrics.SetBankroll(ledger.Final())
	return ledger, nil
}

// Report construye el reporte de rendimiento sin escribir en el store.
func (s *Syncer) Report(ctx context.Context) (domain.PerformanceReport, error) {
	bets, err := s.store.ListBets(ctx)
	if err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("settlement.Report: load bets: %w", err)
	}
	ledger, err := domain.RebuildLedger(bets, s.cfg.Ledger)
	if err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("settlement.Report: %w", err)
	}
	return domain.PerformanceReport{
		Ledger:  ledger,
		Summary: domain.Summarize(bets, ledger),
		ByTier:  domain.ByTier(bets),
		ByDate:  domain.ByDate(bets, s.cfg.ByDateLimit),
	}, nil
}

// --- helpers ---

type dateGroup struct {
	date time.Time
	bets []domain.Bet
}

// groupByDate agrupa las apuestas por fecha en orden ascendente.
func groupByDate(bets []domain.Bet) []dateGroup {
	idx := make(map[time.Time]int)
	var groups []dateGroup
	for _, b := range bets {
		d := domain.CivilDate(b.GameDate)
		i, ok := idx[d]
		if !ok {
			i = len(groups)
			idx[d] = i
			groups = append(groups, dateGroup{date: d})
		}
		groups[i].bets = append(groups[i].bets, b)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].date.Before(groups[j].date) })
	return groups
}

type noopMetrics struct{}

func (noopMetrics) ObserveSync(string, time.Duration) {}
func (noopMetrics) IncTransition(string)              {}
func (noopMetrics) IncDeferred()                      {}
func (noopMetrics) SetBankroll(float64)               {}

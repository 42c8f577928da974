package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/pratracker/config"
	"github.com/alejandrodnm/pratracker/internal/adapters/betfile"
	"github.com/alejandrodnm/pratracker/internal/adapters/cache"
	"github.com/alejandrodnm/pratracker/internal/adapters/metrics"
	"github.com/alejandrodnm/pratracker/internal/adapters/nba"
	"github.com/alejandrodnm/pratracker/internal/adapters/notify"
	"github.com/alejandrodnm/pratracker/internal/adapters/storage"
	"github.com/alejandrodnm/pratracker/internal/application/live"
	"github.com/alejandrodnm/pratracker/internal/application/settlement"
	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/alejandrodnm/pratracker/internal/ports"
	"github.com/alejandrodnm/pratracker/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one result sync and exit")
	lookback := flag.Int("lookback", -1, "days to look back in the sync (overrides config)")
	showLive := flag.Bool("live", false, "print the live board and exit")
	liveDate := flag.String("date", "", "date for -live, YYYY-MM-DD (default: today)")
	report := flag.Bool("report", false, "print ledger + summary and exit")
	serve := flag.Bool("serve", false, "run the cron scheduler and metrics server until signal")
	betsPath := flag.String("bets", "", "register new bets from a YAML file before anything else")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", true, "print full tables (false: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	days := cfg.Sync.LookbackDays
	if *lookback >= 0 {
		days = *lookback
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("pratracker starting",
		"config", *configPath,
		"storage", storageKind(cfg.Storage.DSN),
		"lookback_days", days,
		"once", *once,
		"live", *showLive,
		"report", *report,
		"serve", *serve,
	)

	store, err := storage.Open(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "storage", storageKind(cfg.Storage.DSN))
		os.Exit(1)
	}
	defer store.Close()

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "err", err)
		os.Exit(1)
	}
	ledgerCfg, err := cfg.Ledger()
	if err != nil {
		slog.Error("invalid betting config", "err", err)
		os.Exit(1)
	}

	client := nba.NewClient(cfg.API.StatsBase, cfg.API.LiveBase, cfg.API.RequestsPerSecond)
	syncMetrics := metrics.NewSyncMetrics()
	notifier := notify.NewConsole(*table)

	syncCfg := settlement.DefaultConfig()
	syncCfg.LookbackDays = days
	syncCfg.MaxRetries = cfg.Sync.MaxRetries
	syncCfg.RetryDelay = cfg.RetryDelay()
	syncCfg.Workers = cfg.Sync.Workers
	syncCfg.Location = loc
	syncCfg.Policy = cfg.Policy()
	syncCfg.Ledger = ledgerCfg
	syncer := settlement.New(syncCfg, client, store, syncMetrics)

	snapshots := openCache(ctx, cfg)
	board := live.New(live.Config{
		Thresholds: cfg.Thresholds(),
		Location:   loc,
		Workers:    cfg.Sync.Workers,
	}, client, store, snapshots)

	if *betsPath != "" {
		if err := registerBets(ctx, store, *betsPath); err != nil {
			slog.Error("failed to register bets", "err", err, "path", *betsPath)
			os.Exit(1)
		}
	}

	switch {
	case *once:
		runSync(ctx, syncer, notifier, days)
	case *showLive:
		runLive(ctx, board, notifier, *liveDate)
	case *report:
		runReport(ctx, syncer, notifier)
	case *serve:
		runServe(ctx, cfg, syncer, board, notifier, store, syncMetrics, loc, days)
	default:
		if *betsPath == "" {
			flag.Usage()
			os.Exit(2)
		}
	}

	slog.Info("pratracker stopped cleanly")
}

func registerBets(ctx context.Context, store ports.BetStore, path string) error {
	bets, err := betfile.Load(path)
	if err != nil {
		return err
	}
	if err := store.SaveBets(ctx, bets); err != nil {
		return err
	}
	slog.Info("bets registered", "path", path, "count", len(bets))
	return nil
}

func runSync(ctx context.Context, syncer *settlement.Syncer, notifier ports.Notifier, days int) {
	report, err := syncer.Sync(ctx, days)
	if err != nil {
		slog.Error("sync failed", "run_id", report.RunID, "err", err)
		os.Exit(1)
	}
	if err := notifier.NotifySync(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func runLive(ctx context.Context, board *live.Board, notifier ports.Notifier, date string) {
	var (
		lb  domain.LiveBoard
		err error
	)
	if date == "" {
		lb, err = board.Today(ctx)
	} else {
		var d time.Time
		if d, err = domain.ParseDate(date); err == nil {
			lb, err = board.Build(ctx, d)
		}
	}
	if err != nil {
		slog.Error("live board failed", "err", err)
		os.Exit(1)
	}
	if err := notifier.NotifyLive(ctx, lb); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func runReport(ctx context.Context, syncer *settlement.Syncer, notifier ports.Notifier) {
	r, err := syncer.Report(ctx)
	if err != nil {
		slog.Error("report failed", "err", err)
		os.Exit(1)
	}
	if err := notifier.NotifyReport(ctx, r); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func runServe(
	ctx context.Context,
	cfg *config.Config,
	syncer *settlement.Syncer,
	board *live.Board,
	notifier ports.Notifier,
	store ports.BetStore,
	syncMetrics *metrics.SyncMetrics,
	loc *time.Location,
	days int,
) {
	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		srv = metrics.StartServer(cfg.Metrics.Addr, syncMetrics.Registry(), store.Ping)
		slog.Info("metrics server listening", "addr", cfg.Metrics.Addr)
	}

	// El gauge de bankroll arranca con el ledger persistido.
	if _, err := syncer.RebuildLedger(ctx); err != nil {
		slog.Warn("initial ledger rebuild failed", "err", err)
	}

	sched := scheduler.NewScheduler(ctx, loc, syncer, board, notifier, days)
	if err := sched.RegisterAll(cfg.Sync.Cron, cfg.Live.Cron); err != nil {
		slog.Error("failed to register cron jobs", "err", err)
		os.Exit(1)
	}
	sched.Start()

	<-ctx.Done()
	sched.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown", "err", err)
		}
	}
}

// openCache conecta a Redis si hay dirección; si falla, sigue sin cache.
func openCache(ctx context.Context, cfg *config.Config) ports.SnapshotCache {
	if cfg.Cache.RedisAddr == "" {
		return cache.NoopCache{}
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.Password, cfg.Cache.DB, cfg.CacheTTL())
	if err != nil {
		slog.Warn("redis unavailable, live board without cache", "addr", cfg.Cache.RedisAddr, "err", err)
		return cache.NoopCache{}
	}
	return rc
}

func storageKind(dsn string) string {
	if storage.IsPostgresDSN(dsn) {
		return "postgres" // el DSN puede llevar credenciales
	}
	return "sqlite:" + dsn
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zonas horarias sin depender del sistema

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

const (
	defaultLookbackDays = 3
	defaultMaxRetries   = 2
)

// Config es la configuración completa del tracker.
type Config struct {
	Betting BettingConfig `yaml:"betting"`
	Sync    SyncConfig    `yaml:"sync"`
	Live    LiveConfig    `yaml:"live"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// BettingConfig controla bankroll, cuota y política de push.
type BettingConfig struct {
	StartingBankroll float64 `yaml:"starting_bankroll"`
	AmericanOdds     float64 `yaml:"american_odds"` // -110 por defecto
	PushPolicy       string  `yaml:"push_policy"`   // loses | voids
}

// SyncConfig controla el orquestador de resultados.
type SyncConfig struct {
	LookbackDays      int    `yaml:"lookback_days"`
	MaxRetries        int    `yaml:"max_retries"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	Workers           int    `yaml:"workers"`
	Cron              string `yaml:"cron"`     // 6 campos, con segundos
	Timezone          string `yaml:"timezone"` // fecha civil de los partidos
}

// LiveConfig contiene los umbrales del clasificador en vivo.
// Los ceros se rellenan con los valores por defecto.
type LiveConfig struct {
	Cron                 string  `yaml:"cron"` // vacío = sin job en vivo
	OnTrackRatio         float64 `yaml:"on_track_ratio"`
	NeedsMoreRatio       float64 `yaml:"needs_more_ratio"`
	SafeRatio            float64 `yaml:"safe_ratio"`
	LateGameMinutes      float64 `yaml:"late_game_minutes"`
	MinutesCeiling       float64 `yaml:"minutes_ceiling"`
	PeriodMinutes        float64 `yaml:"period_minutes"`
	OvertimeMinutes      float64 `yaml:"overtime_minutes"`
	RegulationPeriods    int     `yaml:"regulation_periods"`
	MinRateMinutes       float64 `yaml:"min_rate_minutes"`
	DefaultParticipation float64 `yaml:"default_participation"`
}

// APIConfig contiene los base URLs del proveedor de estadísticas.
type APIConfig struct {
	StatsBase         string  `yaml:"stats_base"`
	LiveBase          string  `yaml:"live_base"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN      string `yaml:"dsn"` // archivo SQLite, ":memory:" o postgres://
	MaxConns int    `yaml:"max_conns"`
}

// CacheConfig controla la cache de snapshots en Redis.
type CacheConfig struct {
	RedisAddr  string `yaml:"redis_addr"` // vacío = sin cache
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// MetricsConfig controla el servidor de /metrics y /healthz.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío = desactivado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse interpreta un YAML, aplica overrides de entorno, defaults y valida.
func Parse(data []byte) (*Config, error) {
	// Los campos donde 0 es válido se rellenan antes de leer el YAML:
	// setDefaults no distingue un 0 explícito de uno ausente.
	cfg := Config{
		Sync: SyncConfig{
			LookbackDays: defaultLookbackDays,
			MaxRetries:   defaultMaxRetries,
		},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RetryDelay devuelve el delay entre reintentos como time.Duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Sync.RetryDelaySeconds) * time.Second
}

// CacheTTL devuelve el TTL de los snapshots como time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Location carga la zona horaria de sync.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Sync.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config.Location: %q: %w", c.Sync.Timezone, err)
	}
	return loc, nil
}

// Payout devuelve el modelo de pago derivado de betting.american_odds.
func (c *Config) Payout() (domain.PayoutModel, error) {
	return domain.PayoutFromAmericanOdds(c.Betting.AmericanOdds)
}

// Ledger devuelve la configuración del ledger de bankroll.
func (c *Config) Ledger() (domain.LedgerConfig, error) {
	p, err := c.Payout()
	if err != nil {
		return domain.LedgerConfig{}, err
	}
	return domain.LedgerConfig{StartingBankroll: c.Betting.StartingBankroll, Payout: p}, nil
}

// Policy devuelve la política de liquidación.
func (c *Config) Policy() domain.SettlementPolicy {
	return domain.SettlementPolicy{Push: domain.PushPolicy(c.Betting.PushPolicy)}
}

// Thresholds devuelve los umbrales del clasificador en vivo.
func (c *Config) Thresholds() domain.LiveThresholds {
	return domain.LiveThresholds{
		OnTrackRatio:         c.Live.OnTrackRatio,
		NeedsMoreRatio:       c.Live.NeedsMoreRatio,
		SafeRatio:            c.Live.SafeRatio,
		LateGameMinutes:      c.Live.LateGameMinutes,
		MinutesCeiling:       c.Live.MinutesCeiling,
		PeriodMinutes:        c.Live.PeriodMinutes,
		OvertimeMinutes:      c.Live.OvertimeMinutes,
		RegulationPeriods:    c.Live.RegulationPeriods,
		MinRateMinutes:       c.Live.MinRateMinutes,
		DefaultParticipation: c.Live.DefaultParticipation,
	}
}

// Validate comprueba los valores que los defaults no pueden arreglar.
func (c *Config) Validate() error {
	var errs []error
	if c.Betting.StartingBankroll <= 0 {
		errs = append(errs, fmt.Errorf("betting.starting_bankroll must be > 0, got %v", c.Betting.StartingBankroll))
	}
	if _, err := c.Payout(); err != nil {
		errs = append(errs, fmt.Errorf("betting.american_odds: %w", err))
	}
	if !c.Policy().Push.Valid() {
		errs = append(errs, fmt.Errorf("betting.push_policy must be loses|voids, got %q", c.Betting.PushPolicy))
	}
	if c.Sync.LookbackDays < 0 {
		errs = append(errs, fmt.Errorf("sync.lookback_days must be >= 0, got %d", c.Sync.LookbackDays))
	}
	if c.Sync.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("sync.max_retries must be >= 0, got %d", c.Sync.MaxRetries))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("live: %w", err))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug|info|warn|error, got %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text|json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOOKBACK_DAYS %q: %w", v, err)
		}
		cfg.Sync.LookbackDays = n
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Betting.StartingBankroll == 0 {
		cfg.Betting.StartingBankroll = domain.StartingBankroll
	}
	if cfg.Betting.AmericanOdds == 0 {
		cfg.Betting.AmericanOdds = domain.StandardAmericanOdds
	}
	if cfg.Betting.PushPolicy == "" {
		cfg.Betting.PushPolicy = string(domain.PushLoses)
	}
	if cfg.Sync.RetryDelaySeconds <= 0 {
		cfg.Sync.RetryDelaySeconds = 2
	}
	if cfg.Sync.Workers <= 0 {
		cfg.Sync.Workers = 4
	}
	if cfg.Sync.Cron == "" {
		cfg.Sync.Cron = "0 0 10 * * *" // 10:00 todos los días
	}
	if cfg.Sync.Timezone == "" {
		cfg.Sync.Timezone = "America/New_York"
	}

	d := domain.DefaultLiveThresholds()
	l := &cfg.Live
	setFloat(&l.OnTrackRatio, d.OnTrackRatio)
	setFloat(&l.NeedsMoreRatio, d.NeedsMoreRatio)
	setFloat(&l.SafeRatio, d.SafeRatio)
	setFloat(&l.LateGameMinutes, d.LateGameMinutes)
	setFloat(&l.MinutesCeiling, d.MinutesCeiling)
	setFloat(&l.PeriodMinutes, d.PeriodMinutes)
	setFloat(&l.OvertimeMinutes, d.OvertimeMinutes)
	setFloat(&l.MinRateMinutes, d.MinRateMinutes)
	setFloat(&l.DefaultParticipation, d.DefaultParticipation)
	if l.RegulationPeriods == 0 {
		l.RegulationPeriods = d.RegulationPeriods
	}

	if cfg.API.StatsBase == "" {
		cfg.API.StatsBase = "https://stats.nba.com"
	}
	if cfg.API.LiveBase == "" {
		cfg.API.LiveBase = "https://cdn.nba.com/static/json/liveData"
	}
	if cfg.API.RequestsPerSecond <= 0 {
		cfg.API.RequestsPerSecond = 2
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pratracker.db"
	}
	if cfg.Storage.MaxConns <= 0 {
		cfg.Storage.MaxConns = 4
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

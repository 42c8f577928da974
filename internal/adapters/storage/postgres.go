package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS bets (
    id             BIGSERIAL PRIMARY KEY,
    player_id      INTEGER          NOT NULL,
    player_name    TEXT             NOT NULL,
    game_date      DATE             NOT NULL,
    betting_line   DOUBLE PRECISION NOT NULL,
    direction      TEXT             NOT NULL,
    tier           TEXT             NOT NULL DEFAULT '',
    units          DOUBLE PRECISION NOT NULL,
    prediction     DOUBLE PRECISION,
    actual_pra     DOUBLE PRECISION,
    actual_minutes DOUBLE PRECISION,
    result         TEXT             NOT NULL DEFAULT 'PENDING',
    created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
    settled_at     TIMESTAMPTZ,
    UNIQUE (player_id, game_date)
);

CREATE TABLE IF NOT EXISTS daily_summary (
    date       DATE PRIMARY KEY,
    total_bets INTEGER          NOT NULL DEFAULT 0,
    wins       INTEGER          NOT NULL DEFAULT 0,
    losses     INTEGER          NOT NULL DEFAULT 0,
    pending    INTEGER          NOT NULL DEFAULT 0,
    voided     INTEGER          NOT NULL DEFAULT 0,
    daily_pnl  DOUBLE PRECISION NOT NULL DEFAULT 0,
    bankroll   DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_bets_date   ON bets(game_date);
CREATE INDEX IF NOT EXISTS idx_bets_result ON bets(result);
`

// PostgresStorage implementa ports.BetStore sobre PostgreSQL via pgx.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage abre un pool, hace ping y aplica el schema.
func NewPostgresStorage(ctx context.Context, dsn string, maxConns int) (*PostgresStorage, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStorage: parse config: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStorage: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStorage: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStorage: apply schema: %w", err)
	}
	return &PostgresStorage{pool: pool}, nil
}

func scanPgBet(row pgx.Row) (domain.Bet, error) {
	var b domain.Bet
	var direction, result string

	if err := row.Scan(
		&b.PlayerID, &b.PlayerName, &b.GameDate, &b.BettingLine, &direction, &b.Tier,
		&b.Units, &b.Prediction, &b.ActualPRA, &b.ActualMinutes, &result, &b.CreatedAt,
	); err != nil {
		return domain.Bet{}, err
	}

	var err error
	if b.Result, err = domain.ParseResult(result); err != nil {
		return domain.Bet{}, err
	}
	b.Direction = domain.Direction(direction)
	b.GameDate = domain.CivilDate(b.GameDate)
	return b, nil
}

// SaveBets inserta apuestas nuevas; las existentes no se modifican.
func (s *PostgresStorage) SaveBets(ctx context.Context, bets []domain.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	const query = `
		INSERT INTO bets (` + betColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (player_id, game_date) DO NOTHING`

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, b := range bets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("storage.SaveBets: %w", err)
		}
		created := b.CreatedAt
		if created.IsZero() {
			created = now
		}
		batch.Queue(query,
			b.PlayerID, b.PlayerName, b.GameDate, b.BettingLine, string(b.Direction), b.Tier,
			b.Units, b.Prediction, b.ActualPRA, b.ActualMinutes, string(b.Result), created,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	for _, b := range bets {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("storage.SaveBets: insert %s: %w", b.Key(), err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("storage.SaveBets: %w", err)
	}
	return nil
}

// GetBet devuelve una apuesta por clave.
func (s *PostgresStorage) GetBet(ctx context.Context, key domain.BetKey) (domain.Bet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets WHERE player_id = $1 AND game_date = $2`,
		key.PlayerID, key.GameDate,
	)
	b, err := scanPgBet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %w", err)
	}
	return b, nil
}

func (s *PostgresStorage) ListBets(ctx context.Context) ([]domain.Bet, error) {
	return s.queryBets(ctx, "storage.ListBets", `ORDER BY game_date, player_id`)
}

func (s *PostgresStorage) ListBetsByDate(ctx context.Context, date time.Time) ([]domain.Bet, error) {
	return s.queryBets(ctx, "storage.ListBetsByDate", `WHERE game_date = $1 ORDER BY player_name`, date)
}

func (s *PostgresStorage) ListPendingBets(ctx context.Context, from, to time.Time) ([]domain.Bet, error) {
	return s.queryBets(ctx, "storage.ListPendingBets",
		`WHERE result = $1 AND game_date BETWEEN $2 AND $3 ORDER BY game_date, player_id`,
		string(domain.ResultPending), from, to)
}

// SaveBetResult guarda el resultado con SELECT ... FOR UPDATE para serializar escritores.
func (s *PostgresStorage) SaveBetResult(ctx context.Context, key domain.BetKey, actualPRA, actualMinutes *float64, result domain.Result) error {
	if err := checkResult(key, actualPRA, result); err != nil {
		return fmt.Errorf("storage.SaveBetResult: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage.SaveBetResult: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT result FROM bets WHERE player_id = $1 AND game_date = $2 FOR UPDATE`,
		key.PlayerID, key.GameDate,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("storage.SaveBetResult: %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("storage.SaveBetResult: read %s: %w", key, err)
	}

	if prev := domain.Result(current); prev.Terminal() {
		if prev == result {
			return nil
		}
		return fmt.Errorf("storage.SaveBetResult: %w: %s already %s, refusing %s",
			domain.ErrInputContract, key, prev, result)
	}

	var settled *time.Time
	if result.Terminal() {
		now := time.Now().UTC()
		settled = &now
	}
	if _, err := tx.Exec(ctx, `
		UPDATE bets SET actual_pra = $3, actual_minutes = $4, result = $5, settled_at = $6
		WHERE player_id = $1 AND game_date = $2`,
		key.PlayerID, key.GameDate, actualPRA, actualMinutes, string(result), settled,
	); err != nil {
		return fmt.Errorf("storage.SaveBetResult: update %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage.SaveBetResult: commit: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ReplaceDailySummaries(ctx context.Context, days []domain.DailySummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM daily_summary`); err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: clear: %w", err)
	}

	rows := make([][]any, 0, len(days))
	for _, d := range days {
		rows = append(rows, []any{d.Date, d.TotalBets, d.Wins, d.Losses, d.Pending, d.Voided, d.DailyPnL, d.Bankroll})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"daily_summary"},
		[]string{"date", "total_bets", "wins", "losses", "pending", "voided", "daily_pnl", "bankroll"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: copy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: commit: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetDailySummaries(ctx context.Context) ([]domain.DailySummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, total_bets, wins, losses, pending, voided, daily_pnl, bankroll
		FROM daily_summary ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetDailySummaries: query: %w", err)
	}
	defer rows.Close()

	var days []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		if err := rows.Scan(&d.Date, &d.TotalBets, &d.Wins, &d.Losses,
			&d.Pending, &d.Voided, &d.DailyPnL, &d.Bankroll); err != nil {
			return nil, fmt.Errorf("storage.GetDailySummaries: scan row: %w", err)
		}
		d.Date = domain.CivilDate(d.Date)
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStorage) queryBets(ctx context.Context, op, clause string, args ...any) ([]domain.Bet, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+betColumns+` FROM bets `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		b, err := scanPgBet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

package storage

// sqlite.go: almacenamiento de apuestas y resumen diario.
//
// Estrategia:
//   - `bets`: UNA fila por (player_id, game_date). Las liquidaciones son UPDATE
//     idempotentes: reescribir el mismo resultado terminal no toca el disco.
//   - `daily_summary`: siempre derivada. Se reemplaza entera en cada rebuild.
//   - Cache en memoria de resultados terminales: evita leer la fila en cada
//     SaveBetResult de una apuesta ya liquidada.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bets (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    player_id      INTEGER NOT NULL,
    player_name    TEXT    NOT NULL,
    game_date      TEXT    NOT NULL,
    betting_line   REAL    NOT NULL,
    direction      TEXT    NOT NULL,
    tier           TEXT    NOT NULL DEFAULT '',
    units          REAL    NOT NULL,
    prediction     REAL,
    actual_pra     REAL,
    actual_minutes REAL,
    result         TEXT    NOT NULL DEFAULT 'PENDING',
    created_at     TEXT    NOT NULL,
    settled_at     TEXT,
    UNIQUE(player_id, game_date)
);

CREATE TABLE IF NOT EXISTS daily_summary (
    date       TEXT PRIMARY KEY,
    total_bets INTEGER NOT NULL DEFAULT 0,
    wins       INTEGER NOT NULL DEFAULT 0,
    losses     INTEGER NOT NULL DEFAULT 0,
    pending    INTEGER NOT NULL DEFAULT 0,
    voided     INTEGER NOT NULL DEFAULT 0,
    daily_pnl  REAL    NOT NULL DEFAULT 0,
    bankroll   REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_bets_date   ON bets(game_date);
CREATE INDEX IF NOT EXISTS idx_bets_result ON bets(result);
`

const betColumns = `player_id, player_name, game_date, betting_line, direction, tier,
	units, prediction, actual_pra, actual_minutes, result, created_at`

// SQLiteStorage implementa ports.BetStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db       *sql.DB
	terminal map[string]domain.Result // BetKey → resultado terminal guardado
	mu       sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y precarga la cache de resultados terminales.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:       db,
		terminal: make(map[string]domain.Result),
	}
	s.warmCache(context.Background())
	return s, nil
}

// SaveBets inserta apuestas nuevas; las existentes no se modifican.
func (s *SQLiteStorage) SaveBets(ctx context.Context, bets []domain.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBets: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bets (`+betColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id, game_date) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveBets: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var inserted []domain.Bet
	for _, b := range bets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("storage.SaveBets: %w", err)
		}
		created := b.CreatedAt
		if created.IsZero() {
			created = now
		}
		res, err := stmt.ExecContext(ctx,
			b.PlayerID,
			b.PlayerName,
			b.GameDate.Format(domain.DateLayout),
			b.BettingLine,
			string(b.Direction),
			b.Tier,
			b.Units,
			nullFloat(b.Prediction),
			nullFloat(b.ActualPRA),
			nullFloat(b.ActualMinutes),
			string(b.Result),
			created.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("storage.SaveBets: insert %s: %w", b.Key(), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, b)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBets: commit: %w", err)
	}

	s.mu.Lock()
	for _, b := range inserted {
		if b.Result.Terminal() {
			s.terminal[b.Key().String()] = b.Result
		}
	}
	s.mu.Unlock()
	return nil
}

// GetBet devuelve una apuesta por clave.
func (s *SQLiteStorage) GetBet(ctx context.Context, key domain.BetKey) (domain.Bet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE player_id = ? AND game_date = ?`,
		key.PlayerID, key.GameDate.Format(domain.DateLayout),
	)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %w", err)
	}
	return b, nil
}

// ListBets devuelve todas las apuestas ordenadas por fecha.
func (s *SQLiteStorage) ListBets(ctx context.Context) ([]domain.Bet, error) {
	return s.queryBets(ctx, "storage.ListBets", `ORDER BY game_date, player_id`)
}

// ListBetsByDate devuelve las apuestas de una fecha.
func (s *SQLiteStorage) ListBetsByDate(ctx context.Context, date time.Time) ([]domain.Bet, error) {
	return s.queryBets(ctx, "storage.ListBetsByDate",
		`WHERE game_date = ? ORDER BY player_name`, date.Format(domain.DateLayout))
}

// ListPendingBets devuelve las apuestas PENDING con fecha en [from, to].
func (s *SQLiteStorage) ListPendingBets(ctx context.Context, from, to time.Time) ([]domain.Bet, error) {
	return s.queryBets(ctx, "storage.ListPendingBets",
		`WHERE result = ? AND game_date BETWEEN ? AND ? ORDER BY game_date, player_id`,
		string(domain.ResultPending), from.Format(domain.DateLayout), to.Format(domain.DateLayout))
}

// SaveBetResult guarda el resultado de una liquidación.
// Idempotente: el mismo resultado terminal es no-op; otro distinto se rechaza.
func (s *SQLiteStorage) SaveBetResult(ctx context.Context, key domain.BetKey, actualPRA, actualMinutes *float64, result domain.Result) error {
	if err := checkResult(key, actualPRA, result); err != nil {
		return fmt.Errorf("storage.SaveBetResult: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.terminal[key.String()]; ok {
		if prev == result {
			return nil
		}
		return fmt.Errorf("storage.SaveBetResult: %w: %s already %s, refusing %s",
			domain.ErrInputContract, key, prev, result)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBetResult: begin tx: %w", err)
	}
	defer tx.Rollback()

	date := key.GameDate.Format(domain.DateLayout)
	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT result FROM bets WHERE player_id = ? AND game_date = ?`, key.PlayerID, date,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("storage.SaveBetResult: %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("storage.SaveBetResult: read %s: %w", key, err)
	}

	if prev := domain.Result(current); prev.Terminal() {
		s.terminal[key.String()] = prev
		if prev == result {
			return nil
		}
		return fmt.Errorf("storage.SaveBetResult: %w: %s already %s, refusing %s",
			domain.ErrInputContract, key, prev, result)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bets SET actual_pra = ?, actual_minutes = ?, result = ?, settled_at = ?
		WHERE player_id = ? AND game_date = ?`,
		nullFloat(actualPRA), nullFloat(actualMinutes), string(result),
		settledAt(result), key.PlayerID, date,
	); err != nil {
		return fmt.Errorf("storage.SaveBetResult: update %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBetResult: commit: %w", err)
	}
	if result.Terminal() {
		s.terminal[key.String()] = result
	}
	return nil
}

// ReplaceDailySummaries borra y reescribe daily_summary en una transacción.
func (s *SQLiteStorage) ReplaceDailySummaries(ctx context.Context, days []domain.DailySummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_summary`); err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_summary (date, total_bets, wins, losses, pending, voided, daily_pnl, bankroll)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: prepare: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx,
			d.Date.Format(domain.DateLayout), d.TotalBets, d.Wins, d.Losses,
			d.Pending, d.Voided, d.DailyPnL, d.Bankroll,
		); err != nil {
			return fmt.Errorf("storage.ReplaceDailySummaries: insert %s: %w", d.Date.Format(domain.DateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.ReplaceDailySummaries: commit: %w", err)
	}
	return nil
}

// GetDailySummaries devuelve el resumen diario ordenado por fecha ascendente.
func (s *SQLiteStorage) GetDailySummaries(ctx context.Context) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, total_bets, wins, losses, pending, voided, daily_pnl, bankroll
		FROM daily_summary ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetDailySummaries: query: %w", err)
	}
	defer rows.Close()

	var days []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		var date string
		if err := rows.Scan(&date, &d.TotalBets, &d.Wins, &d.Losses,
			&d.Pending, &d.Voided, &d.DailyPnL, &d.Bankroll); err != nil {
			return nil, fmt.Errorf("storage.GetDailySummaries: scan row: %w", err)
		}
		if d.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("storage.GetDailySummaries: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Ping comprueba la conexión.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func (s *SQLiteStorage) queryBets(ctx context.Context, op, clause string, args ...any) ([]domain.Bet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+betColumns+` FROM bets `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// warmCache precarga los resultados terminales al arrancar. Los fallos no
// impiden abrir el store: la cache arranca vacía o incompleta y SaveBetResult
// sigue comprobando contra la base de datos.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, game_date, result FROM bets WHERE result <> ?`, string(domain.ResultPending),
	)
	if err != nil {
		slog.Warn("terminal-result cache not warmed, starting empty", "err", err)
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	skipped := 0
	for rows.Next() {
		var id int
		var date, result string
		if err := rows.Scan(&id, &date, &result); err != nil {
			slog.Warn("terminal-result cache: cannot scan row", "err", err)
			skipped++
			continue
		}
		d, err := domain.ParseDate(date)
		if err != nil {
			slog.Warn("terminal-result cache: bad game_date", "player_id", id, "game_date", date, "err", err)
			skipped++
			continue
		}
		s.terminal[domain.BetKey{PlayerID: id, GameDate: d}.String()] = domain.Result(result)
	}
	if err := rows.Err(); err != nil {
		slog.Warn("terminal-result cache partially warmed", "loaded", len(s.terminal), "err", err)
		return
	}
	if skipped > 0 {
		slog.Warn("terminal-result cache partially warmed", "loaded", len(s.terminal), "skipped", skipped)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(r rowScanner) (domain.Bet, error) {
	var b domain.Bet
	var date, direction, result, created string
	var prediction, pra, minutes sql.NullFloat64

	if err := r.Scan(
		&b.PlayerID, &b.PlayerName, &date, &b.BettingLine, &direction, &b.Tier,
		&b.Units, &prediction, &pra, &minutes, &result, &created,
	); err != nil {
		return domain.Bet{}, err
	}

	var err error
	if b.GameDate, err = domain.ParseDate(date); err != nil {
		return domain.Bet{}, err
	}
	if b.Result, err = domain.ParseResult(result); err != nil {
		return domain.Bet{}, err
	}
	b.Direction = domain.Direction(direction)
	b.Prediction = floatPtr(prediction)
	b.ActualPRA = floatPtr(pra)
	b.ActualMinutes = floatPtr(minutes)
	b.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return b, nil
}

// checkResult rechaza combinaciones que violarían el invariante PENDING ⇔ sin PRA.
func checkResult(key domain.BetKey, actualPRA *float64, result domain.Result) error {
	if !result.Valid() {
		return fmt.Errorf("%w: %s result %q", domain.ErrInputContract, key, result)
	}
	if (result == domain.ResultPending) != (actualPRA == nil) {
		return fmt.Errorf("%w: %s result %s inconsistent with actual_pra", domain.ErrInputContract, key, result)
	}
	return nil
}

func settledAt(result domain.Result) any {
	if !result.Terminal() {
		return nil
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}

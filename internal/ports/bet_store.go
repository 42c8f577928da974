package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// BetStore persiste las apuestas y el resumen diario derivado.
type BetStore interface {
	// SaveBets inserta apuestas nuevas. Las que ya existen (mismo jugador y fecha) se ignoran.
	SaveBets(ctx context.Context, bets []domain.Bet) error

	// GetBet devuelve una apuesta por su clave, o domain.ErrNotFound.
	GetBet(ctx context.Context, key domain.BetKey) (domain.Bet, error)

	ListBets(ctx context.Context) ([]domain.Bet, error)
	ListBetsByDate(ctx context.Context, date time.Time) ([]domain.Bet, error)

	// ListPendingBets devuelve las apuestas PENDING con fecha en [from, to].
	ListPendingBets(ctx context.Context, from, to time.Time) ([]domain.Bet, error)

	// SaveBetResult commits a settlement. It is idempotent: writing the same
	// terminal result again is a no-op, and a different terminal result is
	// rejected with domain.ErrInputContract.
	SaveBetResult(ctx context.Context, key domain.BetKey, actualPRA, actualMinutes *float64, result domain.Result) error

	// ReplaceDailySummaries reemplaza la tabla completa en una transacción.
	ReplaceDailySummaries(ctx context.Context, days []domain.DailySummary) error
	GetDailySummaries(ctx context.Context) ([]domain.DailySummary, error)

	Ping(ctx context.Context) error
	Close() error
}

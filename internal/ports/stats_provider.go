package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// StatsProvider obtiene partidos y box scores del proveedor de estadísticas.
// Transient failures wrap domain.ErrProviderUnavailable; the caller decides
// whether to retry.
type StatsProvider interface {
	// FetchGames devuelve los partidos programados para una fecha civil.
	FetchGames(ctx context.Context, date time.Time) ([]domain.Game, error)

	// FetchBoxScore devuelve el estado del partido y las líneas de cada jugador.
	FetchBoxScore(ctx context.Context, gameID string) (domain.GameSnapshot, error)
}

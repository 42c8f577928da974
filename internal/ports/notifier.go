package ports

import (
	"context"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// Notifier presenta los resultados al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Notifier interface {
	// NotifySync muestra las transiciones de una sincronización.
	NotifySync(ctx context.Context, report domain.SyncReport) error

	// NotifyLive muestra el tablero de apuestas en vivo.
	NotifyLive(ctx context.Context, board domain.LiveBoard) error

	// NotifyReport muestra el ledger y las estadísticas agregadas.
	NotifyReport(ctx context.Context, report domain.PerformanceReport) error
}

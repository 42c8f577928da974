package settlement

// concurrent.go: worker pool para descargar box scores en paralelo.
//
// Cada partido es una tarea independiente: un fallo (tras reintentos) solo
// difiere ese partido, el resto se liquida igual.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/alejandrodnm/pratracker/internal/ports"
)

const defaultWorkers = 4

// boxResult es el resultado de descargar el box score de un partido.
type boxResult struct {
	game domain.Game
	snap domain.GameSnapshot
	err  error
}

// fetchBoxScoresConcurrent descarga los box scores de los partidos dados con un
// pool de workers acotado. Devuelve un resultado por partido, en cualquier orden.
// El rate limiter del cliente sigue aplicando por encima del pool.
func fetchBoxScoresConcurrent(
	ctx context.Context,
	provider ports.StatsProvider,
	games []domain.Game,
	retry retryPolicy,
	workers int,
) []boxResult {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(games) {
		workers = len(games)
	}

	workCh := make(chan domain.Game, len(games))
	resultCh := make(chan boxResult, len(games))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range workCh {
				snap, err := withRetry(ctx, retry, "box_score "+g.ID,
					func(ctx context.Context) (domain.GameSnapshot, error) {
						return provider.FetchBoxScore(ctx, g.ID)
					})
				if err != nil {
					slog.Debug("box score fetch failed", "game_id", g.ID, "err", err)
				}
				resultCh <- boxResult{game: g, snap: snap, err: err}
			}
		}()
	}

	for _, g := range games {
		workCh <- g
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]boxResult, 0, len(games))
	for r := range resultCh {
		results = append(results, r)
	}

	slog.Debug("box score fetch complete",
		"games", len(games),
		"workers", workers,
	)
	return results
}

package ports

import (
	"context"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// SnapshotCache guarda snapshots de partidos en vivo durante un intervalo corto.
type SnapshotCache interface {
	// GetSnapshot returns domain.ErrNotFound on a miss.
	GetSnapshot(ctx context.Context, gameID string) (domain.GameSnapshot, error)
	SetSnapshot(ctx context.Context, snap domain.GameSnapshot) error
}

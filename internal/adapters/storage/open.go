package storage

import (
	"context"
	"strings"

	"github.com/alejandrodnm/pratracker/internal/ports"
)

// Open elige el backend según el DSN: postgres:// o postgresql:// usan
// PostgreSQL; cualquier otra cosa es una ruta de SQLite (":memory:" incluido).
func Open(ctx context.Context, dsn string, maxConns int) (ports.BetStore, error) {
	if IsPostgresDSN(dsn) {
		pg, err := NewPostgresStorage(ctx, dsn, maxConns)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	db, err := NewSQLiteStorage(dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// IsPostgresDSN reports whether dsn points at a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

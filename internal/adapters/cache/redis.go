// Package cache implementa ports.SnapshotCache sobre Redis, con un fallback no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// DefaultTTL es lo que vive un snapshot: un intervalo de polling del tablero.
const DefaultTTL = 30 * time.Second

// RedisCache guarda snapshots como JSON.
//
// Key schema:
//
//	snapshot:{gameId} - string con el GameSnapshot serializado
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache conecta y hace ping. Devuelve error si Redis no responde.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache.NewRedisCache: ping %s: %w", addr, err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func snapshotKey(gameID string) string { return "snapshot:" + gameID }

// GetSnapshot devuelve domain.ErrNotFound si la clave no existe o expiró.
func (c *RedisCache) GetSnapshot(ctx context.Context, gameID string) (domain.GameSnapshot, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(gameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.GameSnapshot{}, domain.ErrNotFound
		}
		return domain.GameSnapshot{}, fmt.Errorf("cache.GetSnapshot %s: %w", gameID, err)
	}
	return decodeSnapshot(data)
}

// SetSnapshot guarda el snapshot con el TTL configurado.
func (c *RedisCache) SetSnapshot(ctx context.Context, snap domain.GameSnapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, snapshotKey(snap.Game.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.SetSnapshot %s: %w", snap.Game.ID, err)
	}
	return nil
}

// Close cierra la conexión.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func encodeSnapshot(snap domain.GameSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("cache: marshal snapshot %s: %w", snap.Game.ID, err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (domain.GameSnapshot, error) {
	var snap domain.GameSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.GameSnapshot{}, fmt.Errorf("cache: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// NoopCache nunca guarda nada: cada lectura es un miss.
type NoopCache struct{}

func (NoopCache) GetSnapshot(context.Context, string) (domain.GameSnapshot, error) {
	return domain.GameSnapshot{}, domain.ErrNotFound
}

func (NoopCache) SetSnapshot(context.Context, domain.GameSnapshot) error { return nil }

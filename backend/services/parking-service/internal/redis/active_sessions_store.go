package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the cached view of a running session, keyed by plate.
type ActiveSession struct {
	SessionID    int64     `json:"session_id"`
	LotID        int64     `json:"lot_id"`
	LicensePlate string    `json:"license_plate"`
	Started      time.Time `json:"started_at"`
}

// Store caches active sessions so gate-side lookups skip the database.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(plate string) string {
	return fmt.Sprintf("sessions:active:%s", plate)
}

// Save caches the session under its plate.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.LicensePlate), data, s.ttl).Err()
}

// Get returns the cached session for a plate, redis.Nil if absent.
func (s *Store) Get(ctx context.Context, plate string) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(plate)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete drops the cached session for a plate.
func (s *Store) Delete(ctx context.Context, plate string) error {
	return s.client.Del(ctx, s.key(plate)).Err()
}

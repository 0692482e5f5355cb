// Package session persists per-session conversation history in Redis so
// follow-up turns can see what came before.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/intent"
)

// Store keeps a rolling window of conversation turns per session. Each
// session is a Redis list of JSON-encoded turns, trimmed to the configured
// window and expiring after the TTL of inactivity.
type Store struct {
	client   *redis.Client
	ttl      time.Duration
	maxTurns int
	logger   logger.Logger
}

// NewStore builds a Store over its own Redis connection.
func NewStore(cfg config.RedisConfig, sess config.SessionConfig, log logger.Logger) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return NewStoreWithClient(rdb, sess, log)
}

// NewStoreWithClient builds a Store over an existing client. Tests use this
// with miniredis.
func NewStoreWithClient(client *redis.Client, sess config.SessionConfig, log logger.Logger) *Store {
	ttl := time.Duration(sess.TTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	maxTurns := sess.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Store{
		client:   client,
		ttl:      ttl,
		maxTurns: maxTurns,
		logger:   log,
	}
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func sessionKey(sessionID string) string {
	return "session:history:" + sessionID
}

// Append records one completed turn, trims the window to the newest
// maxTurns entries, and refreshes the TTL.
func (s *Store) Append(ctx context.Context, sessionID string, turn intent.HistoryTurn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode turn: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append session turn: %w", err)
	}
	return nil
}

// History returns the session's turns, oldest first. A missing session
// yields an empty history, not an error.
func (s *Store) History(ctx context.Context, sessionID string) ([]intent.HistoryTurn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	turns := make([]intent.HistoryTurn, 0, len(raw))
	for _, item := range raw {
		var turn intent.HistoryTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			s.logger.Warn("skipping corrupt session turn", map[string]interface{}{
				"session_id": sessionID,
			})
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear drops a session's history.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// Package carts tracks live cart sessions in Redis so the abandoned-cart
// sweep can find carts that went quiet.
package carts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/gangrun/outreach/pkg/models"
)

const (
	sessionKeyPrefix = "outreach:cart:"
	sessionIndexKey  = "outreach:cart-index"

	// Sessions expire on their own well past the abandonment cutoff, so a
	// missed Clear never leaks a key forever.
	sessionTTL = 7 * 24 * time.Hour

	connectTimeout = 5 * time.Second
)

// Store keeps one cart session per customer, indexed by last-activity time.
type Store struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewStore(ctx context.Context, redisURL string, logger *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger.With("module", "cart_store"),
	}, nil
}

// TrackActivity upserts the customer's cart session and refreshes its
// last-activity timestamp.
func (s *Store) TrackActivity(ctx context.Context, session *models.CartSession) error {
	session.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal cart session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.CustomerID, payload, sessionTTL)
	pipe.ZAdd(ctx, sessionIndexKey, redis.Z{
		Score:  float64(session.UpdatedAt.Unix()),
		Member: session.CustomerID,
	})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to track cart activity for %s: %w", session.CustomerID, err)
	}

	return nil
}

// Abandoned returns the cart sessions with no activity since the cutoff.
func (s *Store) Abandoned(ctx context.Context, cutoff time.Time) ([]*models.CartSession, error) {
	customerIDs, err := s.client.ZRangeByScore(ctx, sessionIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan cart index: %w", err)
	}

	sessions := make([]*models.CartSession, 0, len(customerIDs))

	for _, customerID := range customerIDs {
		payload, err := s.client.Get(ctx, sessionKeyPrefix+customerID).Bytes()
		if err == redis.Nil {
			// Expired session, drop the index entry.
			s.client.ZRem(ctx, sessionIndexKey, customerID)

			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to load cart session %s: %w", customerID, err)
		}

		var session models.CartSession

		err = json.Unmarshal(payload, &session)
		if err != nil {
			s.logger.WarnContext(ctx, "corrupt cart session dropped", "customer_id", customerID, "error", err)
			s.client.ZRem(ctx, sessionIndexKey, customerID)

			continue
		}

		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// Clear removes the customer's cart session, typically after checkout or
// after the abandonment trigger has fired.
func (s *Store) Clear(ctx context.Context, customerID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+customerID)
	pipe.ZRem(ctx, sessionIndexKey, customerID)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cart session for %s: %w", customerID, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Package fueling records whether each trip's driver confirmed refuelling.
package fueling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

// DefaultKey is the Redis hash holding every confirmation.
const DefaultKey = "fretehub:fueling:confirmations"

// Answer is the recorded confirmation.
type Answer string

const (
	AnswerYes Answer = "yes"
	AnswerNo  Answer = "no"
)

// Valid reports whether a is a known answer.
func (a Answer) Valid() bool {
	return a == AnswerYes || a == AnswerNo
}

// Store errors wrap the httpx sentinels so handlers can map them directly.
var (
	ErrInvalidTripID = fmt.Errorf("fueling: trip id must be a UUID: %w", httpx.ErrValidation)
	ErrInvalidAnswer = fmt.Errorf("fueling: answer must be yes or no: %w", httpx.ErrValidation)
	ErrNotFound      = fmt.Errorf("fueling: no confirmation recorded: %w", httpx.ErrNotFound)
)

// Store keeps confirmations in a single Redis hash keyed by trip id.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore returns a store on client using DefaultKey.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, key: DefaultKey}
}

// WithKey moves the store to another hash, mostly for tests.
func (s *Store) WithKey(key string) *Store {
	if key != "" {
		s.key = key
	}
	return s
}

// Get returns the confirmation for tripID or ErrNotFound.
func (s *Store) Get(ctx context.Context, tripID string) (Answer, error) {
	id, err := normalizeID(tripID)
	if err != nil {
		return "", err
	}
	raw, err := s.client.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fueling: get %s: %w", id, err)
	}
	return Answer(raw), nil
}

// Set records answer for tripID, replacing any previous value.
func (s *Store) Set(ctx context.Context, tripID string, answer Answer) error {
	id, err := normalizeID(tripID)
	if err != nil {
		return err
	}
	if !answer.Valid() {
		return ErrInvalidAnswer
	}
	if err := s.client.HSet(ctx, s.key, id, string(answer)).Err(); err != nil {
		return fmt.Errorf("fueling: set %s: %w", id, err)
	}
	return nil
}

// Clear removes the confirmation for tripID. Clearing a missing entry is not
// an error.
func (s *Store) Clear(ctx context.Context, tripID string) error {
	id, err := normalizeID(tripID)
	if err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("fueling: clear %s: %w", id, err)
	}
	return nil
}

// List returns the recorded answers for tripIDs; trips without one are
// omitted from the map.
func (s *Store) List(ctx context.Context, tripIDs []string) (map[string]Answer, error) {
	out := make(map[string]Answer, len(tripIDs))
	if len(tripIDs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(tripIDs))
	for _, raw := range tripIDs {
		id, err := normalizeID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	values, err := s.client.HMGet(ctx, s.key, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("fueling: list: %w", err)
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[ids[i]] = Answer(str)
		}
	}
	return out, nil
}

// normalizeID validates tripID and returns its canonical lowercase form so
// that differently cased ids share one entry.
func normalizeID(tripID string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(tripID))
	if err != nil {
		return "", ErrInvalidTripID
	}
	return id.String(), nil
}

// Package session resolves opaque session tokens against redis.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/venturebridge/venturebridge/internal/identity/domain"
)

const keyPrefix = "venturebridge:session:"

type sessionRecord struct {
	UserID uuid.UUID   `json:"userId"`
	Role   domain.Role `json:"role"`
}

// RedisStore issues and resolves opaque session tokens. Tokens are
// random and carry no information; everything lives server-side under a
// TTL, so revoking a session is deleting a key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Issue creates a session for the identity and returns its token.
func (s *RedisStore) Issue(ctx context.Context, identity domain.Identity) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	payload, err := json.Marshal(sessionRecord{UserID: identity.UserID, Role: identity.Role})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// Resolve implements domain.Resolver. Resolving slides the TTL so active
// sessions stay alive.
func (s *RedisStore) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	data, err := s.client.GetEx(ctx, keyPrefix+token, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if !rec.Role.IsValid() {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Identity{UserID: rec.UserID, Role: rec.Role}, nil
}

// Revoke deletes a session.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, keyPrefix+token).Err()
}

package nin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lgac/pkg/platform/sentinel"
)

const credentialKeyPrefix = "nin:cred:"

// RedisCredentialStore is the production credential store. Redis TTL handles
// expiry and GETDEL gives atomic single-use consumption across instances.
type RedisCredentialStore struct {
	client *redis.Client
}

func NewRedisCredentialStore(client *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

func (s *RedisCredentialStore) Put(ctx context.Context, cred Credential) error {
	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	key := credentialKeyPrefix + cred.Token.String()
	if err := s.client.Set(ctx, key, cred.NIN, ttl).Err(); err != nil {
		return fmt.Errorf("store nin credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Consume(ctx context.Context, token uuid.UUID) (*Credential, error) {
	key := credentialKeyPrefix + token.String()
	nin, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Missing covers never-issued, expired and already-consumed alike.
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume nin credential: %w", err)
	}
	return &Credential{Token: token, NIN: nin}, nil
}

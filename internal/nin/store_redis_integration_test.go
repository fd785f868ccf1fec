//go:build integration

package nin_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lgac/internal/nin"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/testutil/containers"
)

type RedisCredentialSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *nin.RedisCredentialStore
}

func TestRedisCredentialSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCredentialSuite))
}

func (s *RedisCredentialSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = nin.NewRedisCredentialStore(s.redis.Client)
}

func (s *RedisCredentialSuite) SetupTest() {
	err := s.redis.FlushAll(context.Background())
	s.Require().NoError(err)
}

func (s *RedisCredentialSuite) TestConsumeIsSingleUse() {
	ctx := context.Background()
	cred := nin.NewCredential("12345678901", time.Now())
	s.Require().NoError(s.store.Put(ctx, cred))

	got, err := s.store.Consume(ctx, cred.Token)
	s.Require().NoError(err)
	s.Equal("12345678901", got.NIN)

	// GETDEL removed the key; the token cannot be replayed.
	_, err = s.store.Consume(ctx, cred.Token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCredentialSuite) TestConsumeUnknownToken() {
	_, err := s.store.Consume(context.Background(), uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCredentialSuite) TestExpiredCredentialRejectedAtPut() {
	cred := nin.NewCredential("12345678901", time.Now().Add(-nin.CredentialTTL-time.Minute))
	err := s.store.Put(context.Background(), cred)
	s.Require().ErrorIs(err, sentinel.ErrExpired)
}

func (s *RedisCredentialSuite) TestCredentialExpiresViaTTL() {
	ctx := context.Background()
	// Backdate so only a sliver of TTL remains, then wait it out.
	cred := nin.NewCredential("12345678901", time.Now().Add(-nin.CredentialTTL+time.Second))
	s.Require().NoError(s.store.Put(ctx, cred))

	time.Sleep(1500 * time.Millisecond)

	_, err := s.store.Consume(ctx, cred.Token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

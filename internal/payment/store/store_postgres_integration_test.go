//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lgac/internal/payment"
	"lgac/internal/payment/store"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "payments")
	s.Require().NoError(err)
}

var refSeq atomic.Int64

func newTestPayment(appID int64) *payment.Payment {
	return &payment.Payment{
		ApplicationID: id.ApplicationID(appID),
		Reference:     fmt.Sprintf("LGAC-PAY-%06d", refSeq.Add(1)),
		AmountKobo:    500000,
		Status:        payment.StatusPending,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestUpsertReplacesPendingPayment() {
	ctx := context.Background()
	first := newTestPayment(1)
	s.Require().NoError(s.store.Upsert(ctx, first))

	// Re-initiating replaces the reference and resets gateway state.
	second := newTestPayment(1)
	s.Require().NoError(s.store.Upsert(ctx, second))

	got, err := s.store.FindByApplication(ctx, id.ApplicationID(1))
	s.Require().NoError(err)
	s.Equal(second.Reference, got.Reference)
	s.Equal(payment.StatusPending, got.Status)
	s.Empty(got.GatewayResponse)
	s.True(got.PaidAt.IsZero())

	// The old reference no longer resolves.
	_, err = s.store.FindByReference(ctx, first.Reference)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMarkSuccessIsIdempotent() {
	ctx := context.Background()
	p := newTestPayment(2)
	s.Require().NoError(s.store.Upsert(ctx, p))

	payload := json.RawMessage(`{"status":"success","amount":500000}`)
	paidAt := time.Now().UTC().Truncate(time.Microsecond)

	won, err := s.store.MarkSuccess(ctx, p.Reference, payload, paidAt)
	s.Require().NoError(err)
	s.True(won)

	// Webhook and callback race; the second confirmation loses quietly.
	won, err = s.store.MarkSuccess(ctx, p.Reference, payload, paidAt)
	s.Require().NoError(err)
	s.False(won)

	got, err := s.store.FindByReference(ctx, p.Reference)
	s.Require().NoError(err)
	s.Equal(payment.StatusSuccess, got.Status)
	s.Equal(paidAt, got.PaidAt.UTC())
	s.JSONEq(string(payload), string(got.GatewayResponse))
}

func (s *PostgresStoreSuite) TestMarkSuccessUnknownReference() {
	_, err := s.store.MarkSuccess(context.Background(), "LGAC-PAY-missing", nil, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMarkFailedNeverOverridesSuccess() {
	ctx := context.Background()
	p := newTestPayment(3)
	s.Require().NoError(s.store.Upsert(ctx, p))

	won, err := s.store.MarkSuccess(ctx, p.Reference, nil, time.Now().UTC())
	s.Require().NoError(err)
	s.True(won)

	won, err = s.store.MarkFailed(ctx, p.Reference, json.RawMessage(`{"status":"failed"}`))
	s.Require().NoError(err)
	s.False(won)

	got, err := s.store.FindByReference(ctx, p.Reference)
	s.Require().NoError(err)
	s.Equal(payment.StatusSuccess, got.Status)
}

func (s *PostgresStoreSuite) TestConcurrentConfirmationsSingleWinner() {
	ctx := context.Background()
	p := newTestPayment(4)
	s.Require().NoError(s.store.Upsert(ctx, p))

	const racers = 8
	var wins atomic.Int32
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.store.MarkSuccess(ctx, p.Reference, nil, time.Now().UTC())
			if err != nil {
				errs <- err
				return
			}
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}
	s.Equal(int32(1), wins.Load())
}

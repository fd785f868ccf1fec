package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"lgac/internal/payment"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
	txcontext "lgac/pkg/platform/tx"
)

// Postgres persists payments in PostgreSQL. The application_id unique
// constraint enforces at most one payment per application; the status guards
// in the UPDATE statements enforce SUCCESS terminality.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const paymentColumns = `application_id, reference, amount_kobo, status, gateway_response, paid_at, created_at`

func (s *Postgres) Upsert(ctx context.Context, p *payment.Payment) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (application_id) DO UPDATE
		SET reference = EXCLUDED.reference,
		    amount_kobo = EXCLUDED.amount_kobo,
		    status = EXCLUDED.status,
		    gateway_response = NULL,
		    paid_at = NULL`,
		p.ApplicationID.Int64(), p.Reference, p.AmountKobo, string(p.Status),
		nullableJSON(p.GatewayResponse), nullableTime(p.PaidAt), p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("upsert payment: %w", err)
	}
	return nil
}

func (s *Postgres) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference)
	return scanPayment(row)
}

func (s *Postgres) FindByApplication(ctx context.Context, appID id.ApplicationID) (*payment.Payment, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE application_id = $1`, appID.Int64())
	return scanPayment(row)
}

func (s *Postgres) MarkSuccess(ctx context.Context, reference string, payload json.RawMessage, paidAt time.Time) (bool, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE payments
		SET status = $2, gateway_response = $3, paid_at = $4
		WHERE reference = $1 AND status <> $2`,
		reference, string(payment.StatusSuccess), nullableJSON(payload), paidAt,
	)
	if err != nil {
		return false, fmt.Errorf("mark payment success: %w", err)
	}
	return wonWrite(ctx, s, res, reference)
}

func (s *Postgres) MarkFailed(ctx context.Context, reference string, payload json.RawMessage) (bool, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE payments
		SET status = $2, gateway_response = $3
		WHERE reference = $1 AND status <> $4`,
		reference, string(payment.StatusFailed), nullableJSON(payload),
		string(payment.StatusSuccess),
	)
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	return wonWrite(ctx, s, res, reference)
}

// wonWrite distinguishes "lost the compare-and-set" from "no such reference".
func wonWrite(ctx context.Context, s *Postgres, res sql.Result, reference string) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}
	if _, err := s.FindByReference(ctx, reference); err != nil {
		return false, err
	}
	return false, nil
}

func scanPayment(row *sql.Row) (*payment.Payment, error) {
	var (
		p       payment.Payment
		serial  int64
		status  string
		payload []byte
		paidAt  sql.NullTime
	)
	err := row.Scan(&serial, &p.Reference, &p.AmountKobo, &status, &payload, &paidAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.ApplicationID = id.ApplicationID(serial)
	p.Status = payment.Status(status)
	p.GatewayResponse = payload
	p.PaidAt = paidAt.Time
	return &p, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

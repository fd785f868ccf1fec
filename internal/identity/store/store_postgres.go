package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lgac/internal/identity"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
	txcontext "lgac/pkg/platform/tx"
)

// Postgres persists accounts in PostgreSQL.
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

const userColumns = `id, full_name, email, phone, nin, nin_verified, role, lga_id, password_hash, created_at`

func (s *Postgres) Create(ctx context.Context, user *identity.User) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)`,
		uuid.UUID(user.ID), user.FullName, user.Email, user.Phone, user.NIN,
		user.NINVerified, string(user.Role), nullableLGA(user.LGA),
		user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*identity.User, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *Postgres) Update(ctx context.Context, user *identity.User) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE users
		SET full_name = $2, email = $3, phone = $4, nin = NULLIF($5, ''),
		    nin_verified = $6, role = $7, lga_id = $8, password_hash = $9
		WHERE id = $1`,
		uuid.UUID(user.ID), user.FullName, user.Email, user.Phone, user.NIN,
		user.NINVerified, string(user.Role), nullableLGA(user.LGA),
		user.PasswordHash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*identity.User, error) {
	var (
		u     identity.User
		rawID uuid.UUID
		nin   sql.NullString
		lgaID uuid.NullUUID
		role  string
	)
	err := row.Scan(&rawID, &u.FullName, &u.Email, &u.Phone, &nin,
		&u.NINVerified, &role, &lgaID, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.NIN = nin.String
	u.Role = identity.Role(role)
	if lgaID.Valid {
		u.LGA = id.LGAID(lgaID.UUID)
	}
	return &u, nil
}

func nullableLGA(lga id.LGAID) uuid.NullUUID {
	if lga.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(lga), Valid: true}
}

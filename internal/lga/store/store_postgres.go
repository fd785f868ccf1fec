package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lgac/internal/lga"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
)

// Postgres persists LGAs in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const lgaColumns = `id, name, slug, code, active, seal_key, hlga_signature_key, chairman_signature_key, created_at`

func (s *Postgres) Create(ctx context.Context, area *lga.LGA) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lgas (`+lgaColumns+`)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		uuid.UUID(area.ID), area.Name, area.Slug, area.Code, area.Active,
		area.SealKey, area.HLGASignatureKey, area.ChairmanSignatureKey, area.CreatedAt,
	)
	return mapLGAError(err, "insert lga")
}

func (s *Postgres) Update(ctx context.Context, area *lga.LGA) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lgas
		SET name = $2, slug = $3, code = NULLIF($4, ''), active = $5,
		    seal_key = $6, hlga_signature_key = $7, chairman_signature_key = $8
		WHERE id = $1`,
		uuid.UUID(area.ID), area.Name, area.Slug, area.Code, area.Active,
		area.SealKey, area.HLGASignatureKey, area.ChairmanSignatureKey,
	)
	if err != nil {
		return mapLGAError(err, "update lga")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lga: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, lgaID id.LGAID) (*lga.LGA, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+lgaColumns+` FROM lgas WHERE id = $1`, uuid.UUID(lgaID))
	return scanLGA(row.Scan)
}

func (s *Postgres) ListActive(ctx context.Context) ([]*lga.LGA, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+lgaColumns+` FROM lgas WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active lgas: %w", err)
	}
	defer rows.Close()

	var out []*lga.LGA
	for rows.Next() {
		area, err := scanLGA(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, area)
	}
	return out, rows.Err()
}

func scanLGA(scan func(dest ...any) error) (*lga.LGA, error) {
	var (
		area  lga.LGA
		rawID uuid.UUID
		code  sql.NullString
	)
	err := scan(&rawID, &area.Name, &area.Slug, &code, &area.Active,
		&area.SealKey, &area.HLGASignatureKey, &area.ChairmanSignatureKey, &area.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan lga: %w", err)
	}
	area.ID = id.LGAID(rawID)
	area.Code = code.String
	return &area, nil
}

func mapLGAError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lgac/internal/application"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
	txcontext "lgac/pkg/platform/tx"
)

// Postgres persists applications in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const appColumns = `id, applicant_id, lga_id, status,
	full_name, email, phone, nin,
	date_of_birth, place_of_birth, home_town, family_compound, father_name, mother_name, purpose,
	passport_photo_key, certificate_number, certificate_hash, approved_at, review_notes, created_at`

func (s *Postgres) Create(ctx context.Context, app *application.Application) error {
	row := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO applications (
			applicant_id, lga_id, status,
			full_name, email, phone, nin,
			date_of_birth, place_of_birth, home_town, family_compound, father_name, mother_name, purpose,
			passport_photo_key, review_notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		uuid.UUID(app.ApplicantID), uuid.UUID(app.LGAID), string(app.Status),
		app.FullName, app.Email, app.Phone, app.NIN,
		nullableTime(app.DateOfBirth), app.PlaceOfBirth, app.HomeTown, app.FamilyCompound,
		app.FatherName, app.MotherName, app.Purpose,
		app.PassportPhotoKey, app.ReviewNotes, app.CreatedAt,
	)
	var serial int64
	if err := row.Scan(&serial); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	app.ID = id.ApplicationID(serial)
	return nil
}

func (s *Postgres) Update(ctx context.Context, app *application.Application) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE applications
		SET lga_id = $2, status = $3,
		    full_name = $4, email = $5, phone = $6, nin = $7,
		    date_of_birth = $8, place_of_birth = $9, home_town = $10, family_compound = $11,
		    father_name = $12, mother_name = $13, purpose = $14,
		    passport_photo_key = $15, review_notes = $16
		WHERE id = $1`,
		app.ID.Int64(), uuid.UUID(app.LGAID), string(app.Status),
		app.FullName, app.Email, app.Phone, app.NIN,
		nullableTime(app.DateOfBirth), app.PlaceOfBirth, app.HomeTown, app.FamilyCompound,
		app.FatherName, app.MotherName, app.Purpose,
		app.PassportPhotoKey, app.ReviewNotes,
	)
	if err != nil {
		return mapAppError("update application", err)
	}
	return requireAffected(res, "update application")
}

func (s *Postgres) FindByID(ctx context.Context, appID id.ApplicationID) (*application.Application, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+appColumns+` FROM applications WHERE id = $1`, appID.Int64())
	return scanApp(row.Scan)
}

func (s *Postgres) FindByHash(ctx context.Context, hash string) (*application.Application, error) {
	if hash == "" {
		return nil, sentinel.ErrNotFound
	}
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+appColumns+` FROM applications WHERE certificate_hash = $1`, hash)
	return scanApp(row.Scan)
}

func (s *Postgres) ListByApplicant(ctx context.Context, applicant id.UserID) ([]*application.Application, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+appColumns+` FROM applications
		WHERE applicant_id = $1 ORDER BY id`, uuid.UUID(applicant))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return collect(rows)
}

func (s *Postgres) ListByLGA(ctx context.Context, lga id.LGAID, statuses ...application.Status) ([]*application.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE lga_id = $1`
	args := []any{uuid.UUID(lga)}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY id`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications by lga: %w", err)
	}
	return collect(rows)
}

// UpdateStatus is the compare-and-set heart of the lifecycle: the WHERE clause
// includes the expected current status, so exactly one of any set of racing
// writers observes an affected row.
func (s *Postgres) UpdateStatus(ctx context.Context, appID id.ApplicationID, from, to application.Status) (bool, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE applications SET status = $3
		WHERE id = $1 AND status = $2`,
		appID.Int64(), string(from), string(to),
	)
	if err != nil {
		return false, fmt.Errorf("update application status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update application status: %w", err)
	}
	return affected == 1, nil
}

// SetCertificate is write-once by construction: the WHERE clause only matches
// rows that have never been numbered.
func (s *Postgres) SetCertificate(ctx context.Context, appID id.ApplicationID, number, hash string, approvedAt time.Time) (bool, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE applications
		SET certificate_number = $2, certificate_hash = $3, approved_at = $4
		WHERE id = $1 AND certificate_number IS NULL`,
		appID.Int64(), number, hash, approvedAt,
	)
	if err != nil {
		return false, mapAppError("set certificate", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set certificate: %w", err)
	}
	return affected == 1, nil
}

func (s *Postgres) SetReviewNotes(ctx context.Context, appID id.ApplicationID, notes string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE applications SET review_notes = $2 WHERE id = $1`,
		appID.Int64(), notes,
	)
	if err != nil {
		return fmt.Errorf("set review notes: %w", err)
	}
	return requireAffected(res, "set review notes")
}

func collect(rows *sql.Rows) ([]*application.Application, error) {
	defer rows.Close()
	var out []*application.Application
	for rows.Next() {
		app, err := scanApp(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

func scanApp(scan func(dest ...any) error) (*application.Application, error) {
	var (
		a           application.Application
		serial      int64
		applicantID uuid.UUID
		lgaID       uuid.UUID
		status      string
		dob         sql.NullTime
		certNumber  sql.NullString
		certHash    sql.NullString
		approvedAt  sql.NullTime
	)
	err := scan(&serial, &applicantID, &lgaID, &status,
		&a.FullName, &a.Email, &a.Phone, &a.NIN,
		&dob, &a.PlaceOfBirth, &a.HomeTown, &a.FamilyCompound,
		&a.FatherName, &a.MotherName, &a.Purpose,
		&a.PassportPhotoKey, &certNumber, &certHash, &approvedAt, &a.ReviewNotes, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	a.ID = id.ApplicationID(serial)
	a.ApplicantID = id.UserID(applicantID)
	a.LGAID = id.LGAID(lgaID)
	a.Status = application.Status(status)
	a.DateOfBirth = dob.Time
	a.CertificateNumber = certNumber.String
	a.CertificateHash = certHash.String
	a.ApprovedAt = approvedAt.Time
	return &a, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func mapAppError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the production tables. Integration suites run against the
// same constraints the stores rely on: unique identity fields, write-once
// certificate columns and one payment row per application.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	full_name     TEXT NOT NULL,
	email         TEXT NOT NULL,
	phone         TEXT NOT NULL,
	nin           TEXT,
	nin_verified  BOOLEAN NOT NULL DEFAULT FALSE,
	role          TEXT NOT NULL,
	lga_id        UUID,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS users_phone_key ON users (phone);
CREATE UNIQUE INDEX IF NOT EXISTS users_nin_key ON users (nin) WHERE nin IS NOT NULL;

CREATE TABLE IF NOT EXISTS lgas (
	id                     UUID PRIMARY KEY,
	name                   TEXT NOT NULL,
	slug                   TEXT NOT NULL UNIQUE,
	code                   TEXT UNIQUE,
	active                 BOOLEAN NOT NULL DEFAULT FALSE,
	seal_key               TEXT NOT NULL DEFAULT '',
	hlga_signature_key     TEXT NOT NULL DEFAULT '',
	chairman_signature_key TEXT NOT NULL DEFAULT '',
	created_at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	id                 BIGSERIAL PRIMARY KEY,
	applicant_id       UUID NOT NULL,
	lga_id             UUID NOT NULL,
	status             TEXT NOT NULL,
	full_name          TEXT NOT NULL,
	email              TEXT NOT NULL,
	phone              TEXT NOT NULL,
	nin                TEXT NOT NULL,
	date_of_birth      TIMESTAMPTZ,
	place_of_birth     TEXT NOT NULL DEFAULT '',
	home_town          TEXT NOT NULL DEFAULT '',
	family_compound    TEXT NOT NULL DEFAULT '',
	father_name        TEXT NOT NULL DEFAULT '',
	mother_name        TEXT NOT NULL DEFAULT '',
	purpose            TEXT NOT NULL DEFAULT '',
	passport_photo_key TEXT NOT NULL DEFAULT '',
	certificate_number TEXT,
	certificate_hash   TEXT,
	approved_at        TIMESTAMPTZ,
	review_notes       TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS applications_cert_number_key
	ON applications (certificate_number) WHERE certificate_number IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS applications_cert_hash_key
	ON applications (certificate_hash) WHERE certificate_hash IS NOT NULL;

CREATE TABLE IF NOT EXISTS payments (
	application_id   BIGINT PRIMARY KEY,
	reference        TEXT NOT NULL UNIQUE,
	amount_kobo      BIGINT NOT NULL,
	status           TEXT NOT NULL,
	gateway_response JSONB,
	paid_at          TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the portal
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	URL       string
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("lgac_test"),
		tcpostgres.WithUsername("lgac"),
		tcpostgres.WithPassword("lgac"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Shared across suites; Ryuk handles cleanup at the end of the run.
	return &PostgresContainer{
		Container: container,
		DB:        db,
		URL:       url,
	}
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

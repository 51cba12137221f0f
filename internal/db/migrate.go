package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on boot so a fresh database is usable immediately.
// The partial unique index is the last line of defence for the
// duplicate-registration invariant: even if the application-level check
// race-loses, the insert fails with a unique violation instead of
// producing a second row. Cancelled rows are excluded so a student can
// re-register after cancelling.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id               BIGSERIAL PRIMARY KEY,
	title            TEXT        NOT NULL,
	description      TEXT,
	date             DATE        NOT NULL,
	time             TIME        NOT NULL,
	location         TEXT        NOT NULL,
	type             TEXT        NOT NULL,
	max_participants INTEGER     NOT NULL DEFAULT 100 CHECK (max_participants >= 1),
	image_url        TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS registrations (
	id            BIGSERIAL PRIMARY KEY,
	event_id      BIGINT      NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	student_name  TEXT        NOT NULL,
	student_email TEXT        NOT NULL,
	student_phone TEXT,
	status        TEXT        NOT NULL DEFAULT 'registered',
	check_in_time TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
CREATE INDEX IF NOT EXISTS idx_regs_event ON registrations(event_id);
CREATE INDEX IF NOT EXISTS idx_regs_email ON registrations(student_email);

CREATE UNIQUE INDEX IF NOT EXISTS registrations_event_email_uniq
	ON registrations(event_id, student_email)
	WHERE status <> 'cancelled';
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)

	return err
}

// SchemaReady probes both tables the way the health endpoint reports them.

func SchemaReady(ctx context.Context, pool *pgxpool.Pool) error {
	var one int

	err := pool.QueryRow(ctx, `SELECT 1 FROM events LIMIT 1`).Scan(&one)

	if err != nil && !isNoRows(err) {
		return err
	}

	err = pool.QueryRow(ctx, `SELECT 1 FROM registrations LIMIT 1`).Scan(&one)

	if err != nil && !isNoRows(err) {
		return err
	}

	return nil
}

// an empty table is still a ready table
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veereshswamy995/campus-events/internal/domain/event"
	"github.com/veereshswamy995/campus-events/internal/domain/registration"
	"github.com/veereshswamy995/campus-events/internal/observability"
)

const registrationColumns = `id, event_id, student_name, student_email, COALESCE(student_phone, ''), status, check_in_time, created_at, updated_at`

type RegistrationRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationRepo {
	return &RegistrationRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanRegistration(row pgx.Row, r *registration.Registration) error {
	return row.Scan(&r.ID, &r.EventID, &r.StudentName, &r.StudentEmail, &r.StudentPhone, &r.Status, &r.CheckInTime, &r.CreatedAt, &r.UpdatedAt)
}

// createTx performs the whole admission inside one transaction:
// duplicate check, capacity check under a row lock on the event, insert.
// The FOR UPDATE lock serializes admissions per event, so two concurrent
// requests can never both pass the capacity check. Cancelled rows count
// toward neither capacity nor uniqueness.
// The request must already be normalized (see CreateRegistrationRequest.Normalize).
func (repo *RegistrationRepo) createTx(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (reg registration.Registration, err error) {
	var exists bool

	err = repo.observe("registrations.create_tx.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND student_email = $2 AND status <> 'cancelled'
		)`, req.EventID, req.StudentEmail).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = registration.ErrAlreadyRegistered
		return
	}

	// lock the event row and count seats under the same lock
	var capacity int
	var current int
	err = repo.observe("registrations.create_tx.capacity_lock", func() error {
		return tx.QueryRow(ctx, `
		SELECT e.max_participants,
			(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id AND r.status <> 'cancelled') AS current
		FROM events e
		WHERE e.id = $1
		FOR UPDATE
	`, req.EventID).Scan(&capacity, &current)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}

		return
	}

	if current >= capacity {
		err = registration.ErrEventFull
		return
	}

	err = repo.observe("registrations.create_tx.insert", func() error {
		return scanRegistration(tx.QueryRow(ctx, `
		INSERT INTO registrations (event_id, student_name, student_email, student_phone, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), 'registered')
		RETURNING `+registrationColumns,
			req.EventID, req.StudentName, req.StudentEmail, req.StudentPhone,
		), &reg)
	})

	if isUniqueViolation(err, "registrations_event_email_uniq") {
		err = registration.ErrAlreadyRegistered
	}

	return
}

// Create wraps the admission in its own transaction for callers without one.
func (repo *RegistrationRepo) Create(ctx context.Context, req registration.CreateRegistrationRequest) (reg registration.Registration, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	reg, err = repo.createTx(ctx, tx, req)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

// CheckIn is a single conditional update, so it needs no extra locking:
// only a row still in 'registered' can move to 'checked_in'. Zero rows
// affected means nothing to check in, regardless of whether the student
// never registered, already checked in, or cancelled.
func (repo *RegistrationRepo) CheckIn(ctx context.Context, eventID int64, studentEmail string) (reg registration.Registration, err error) {
	err = repo.observe("registrations.check_in", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx, `
		UPDATE registrations
		SET status = 'checked_in', check_in_time = now(), updated_at = now()
		WHERE event_id = $1 AND student_email = $2 AND status = 'registered'
		RETURNING `+registrationColumns,
			eventID, registration.NormalizeEmail(studentEmail),
		), &reg)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = registration.ErrNotFound
	}

	return
}

// Cancel releases the seat and the uniqueness slot. Only 'registered'
// rows can be cancelled, per the transition table.
func (repo *RegistrationRepo) Cancel(ctx context.Context, id int64) (reg registration.Registration, err error) {
	err = repo.observe("registrations.cancel", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx, `
		UPDATE registrations
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'registered'
		RETURNING `+registrationColumns,
			id,
		), &reg)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = registration.ErrNotFound
	}

	return
}

func (repo *RegistrationRepo) List(ctx context.Context) ([]registration.Registration, error) {
	return repo.list(ctx, "registrations.list",
		`SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC, id DESC`)
}

func (repo *RegistrationRepo) ListByEvent(ctx context.Context, eventID int64) (regs []registration.Registration, err error) {
	regs, err = repo.list(ctx, "registrations.list_by_event",
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at DESC, id DESC`,
		eventID)

	if err != nil {
		return
	}

	// an empty list for a missing event should read as a 404, not []
	if len(regs) == 0 {
		var dummy int64

		err = repo.observe("registrations.list_by_event.check_event_exists", func() error {
			return repo.pool.QueryRow(ctx, `SELECT id FROM events WHERE id = $1`, eventID).Scan(&dummy)
		})

		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
			return
		}
	}

	return
}

func (repo *RegistrationRepo) list(ctx context.Context, op, query string, args ...interface{}) (regs []registration.Registration, err error) {
	var rows pgx.Rows

	err = repo.observe(op, func() error {
		rows, err = repo.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	regs = make([]registration.Registration, 0)

	for rows.Next() {
		var r registration.Registration

		if scanErr := scanRegistration(rows, &r); scanErr != nil {
			err = scanErr
			return
		}
		regs = append(regs, r)
	}

	err = rows.Err()
	return
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veereshswamy995/campus-events/internal/domain/event"
	"github.com/veereshswamy995/campus-events/internal/observability"
)

const eventColumns = `id, title, COALESCE(description, ''), to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'), location, type, max_participants, COALESCE(image_url, ''), created_at, updated_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanEvent(row pgx.Row, e *event.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, &e.Type, &e.MaxParticipants, &e.ImageURL, &e.CreatedAt, &e.UpdatedAt)
}

// Create expects req.Time already normalized to HH:MM:SS by the handler.
func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest) (created event.Event, err error) {
	err = r.observe("events.create", func() error {
		return scanEvent(r.pool.QueryRow(ctx,
			`INSERT INTO events (title, description, date, time, location, type, max_participants, image_url)
			 VALUES ($1, NULLIF($2, ''), $3::date, $4::time, $5, $6, $7, NULLIF($8, ''))
			 RETURNING `+eventColumns,
			strings.TrimSpace(req.Title),
			strings.TrimSpace(req.Description),
			req.Date,
			req.Time,
			strings.TrimSpace(req.Location),
			req.Type,
			req.Capacity(),
			strings.TrimSpace(req.ImageURL),
		), &created)
	})

	return
}

func (r *EventsRepo) List(ctx context.Context) (events []event.Event, err error) {
	var rows pgx.Rows

	err = r.observe("events.list", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id DESC`)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	events = make([]event.Event, 0)

	for rows.Next() {
		var e event.Event

		if scanErr := scanEvent(rows, &e); scanErr != nil {
			err = scanErr
			return
		}

		events = append(events, e)
	}

	err = rows.Err()
	return
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (found event.Event, err error) {
	err = r.observe("events.get_by_id", func() error {
		return scanEvent(r.pool.QueryRow(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &found)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = event.ErrNotFound
	}

	return
}

// Update applies only the fields the caller provided. req.Time, when set,
// is already normalized by the handler.
func (r *EventsRepo) Update(ctx context.Context, id int64, req event.UpdateEventRequest) (updated event.Event, err error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}
	pos := 2

	add := func(expr string, val interface{}) {
		sets = append(sets, fmt.Sprintf(expr, pos))
		args = append(args, val)
		pos++
	}

	if req.Title != nil {
		add("title = $%d", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		add("description = NULLIF($%d, '')", strings.TrimSpace(*req.Description))
	}
	if req.Date != nil {
		add("date = $%d::date", *req.Date)
	}
	if req.Time != nil {
		add("time = $%d::time", *req.Time)
	}
	if req.Location != nil {
		add("location = $%d", strings.TrimSpace(*req.Location))
	}
	if req.Type != nil {
		add("type = $%d", *req.Type)
	}
	if req.MaxParticipants != nil {
		add("max_participants = $%d", *req.MaxParticipants)
	}
	if req.ImageURL != nil {
		add("image_url = NULLIF($%d, '')", strings.TrimSpace(*req.ImageURL))
	}

	query := `UPDATE events SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + eventColumns

	err = r.observe("events.update", func() error {
		return scanEvent(r.pool.QueryRow(ctx, query, args...), &updated)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = event.ErrNotFound
	}

	return
}

// Delete removes the event; the FK cascade takes its registrations with it.
func (r *EventsRepo) Delete(ctx context.Context, id int64) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("events.delete", func() error {
		t, execErr := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		tag = t
		return execErr
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = event.ErrNotFound
	}

	return
}

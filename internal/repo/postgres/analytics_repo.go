package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veereshswamy995/campus-events/internal/domain/analytics"
	"github.com/veereshswamy995/campus-events/internal/observability"
)

type AnalyticsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAnalyticsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AnalyticsRepo {
	return &AnalyticsRepo{
		pool: pool,
		prom: prom,
	}
}

// PerEvent is a plain point-in-time read; it can lag a concurrent
// registration by one write, which is fine for a reporting view.
// "registered" excludes cancelled rows so the denominator matches the
// seats actually held.
func (r *AnalyticsRepo) PerEvent(ctx context.Context) (stats []analytics.PerEventStats, err error) {
	var rows pgx.Rows

	fetch := func() error {
		rows, err = r.pool.Query(ctx, `
		SELECT e.id,
			e.title,
			e.max_participants,
			COUNT(reg.id) FILTER (WHERE reg.status <> 'cancelled') AS registered,
			COUNT(reg.id) FILTER (WHERE reg.status = 'checked_in') AS checked_in
		FROM events e
		LEFT JOIN registrations reg ON reg.event_id = e.id
		GROUP BY e.id, e.title, e.max_participants
		ORDER BY e.id ASC
	`)
		return err
	}

	if r.prom != nil {
		err = r.prom.ObserveDB("analytics.per_event", fetch)
	} else {
		err = fetch()
	}

	if err != nil {
		return
	}

	defer rows.Close()

	stats = make([]analytics.PerEventStats, 0)

	for rows.Next() {
		var s analytics.PerEventStats

		if scanErr := rows.Scan(&s.EventID, &s.EventTitle, &s.MaxParticipants, &s.Registered, &s.CheckedIn); scanErr != nil {
			err = scanErr
			return
		}

		s.AttendanceRate = analytics.Rate(s.CheckedIn, s.Registered)
		stats = append(stats, s)
	}

	err = rows.Err()
	return
}

package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxishq/praxis/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type eventRepoPG struct{ pool *pgxpool.Pool }

// NewEventRepoPG returns an EventRepository backed by Postgres.
func NewEventRepoPG(pool *pgxpool.Pool) EventRepository { return &eventRepoPG{pool: pool} }

func (r *eventRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const eventCols = `id, doctor_id, kind, start_time, end_time, created_at, updated_at`

func (r *eventRepoPG) scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(&ev.ID, &ev.DoctorID, &ev.Kind, &ev.StartTime, &ev.EndTime,
		&ev.CreatedAt, &ev.UpdatedAt)
	return &ev, err
}

func (r *eventRepoPG) Create(ctx context.Context, ev *Event) error {
	ev.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO calendar_events (id, doctor_id, kind, start_time, end_time)
		VALUES ($1,$2,$3,$4,$5)`,
		ev.ID, ev.DoctorID, ev.Kind, ev.StartTime, ev.EndTime)
	return err
}

func (r *eventRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	ev, err := r.scanEvent(r.conn(ctx).QueryRow(ctx, `SELECT `+eventCols+` FROM calendar_events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return ev, err
}

func (r *eventRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *eventRepoPG) ListEventsInRange(ctx context.Context, doctorID uuid.UUID, rangeStart, rangeEnd time.Time) ([]Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+eventCols+` FROM calendar_events
		WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time, id`,
		doctorID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.DoctorID, &ev.Kind, &ev.StartTime, &ev.EndTime,
			&ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *eventRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Event, int, error) {
	where := `WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2
	if from != nil {
		where += fmt.Sprintf(` AND start_time >= $%d`, idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		where += fmt.Sprintf(` AND start_time < $%d`, idx)
		args = append(args, *to)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM calendar_events `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+eventCols+` FROM calendar_events %s ORDER BY start_time, id LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		ev, err := r.scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ev)
	}
	return items, total, rows.Err()
}

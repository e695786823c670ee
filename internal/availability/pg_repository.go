package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var location *string

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&location,
		&s.Custom,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Location = location
	return &s, nil
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) FindSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, start_time, end_time, duration_minutes, location, custom, created_at
		FROM availability_slots
		WHERE doctor_id = $1 AND date = $2 AND start_time = $3 AND end_time = $4
	`, doctorID, date, startTime, endTime)
	return scanSlot(row)
}

func (r *PgRepository) InsertSlot(ctx context.Context, slot Slot) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_slots (id, doctor_id, date, start_time, end_time, duration_minutes, location, custom, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (doctor_id, date, start_time, end_time) DO NOTHING
		RETURNING id, doctor_id, date, start_time, end_time, duration_minutes, location, custom, created_at
	`, slot.ID, slot.DoctorID, slot.Date, slot.StartTime, slot.EndTime, slot.DurationMinutes, slot.Location, slot.Custom)

	inserted, err := scanSlot(row)
	if err == nil {
		return inserted, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, err
	}

	// Conflict: another insert won the race, return the existing row.
	return r.FindSlot(ctx, slot.DoctorID, slot.Date, slot.StartTime, slot.EndTime)
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, start_time, end_time, duration_minutes, location, custom, created_at
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]Slot, error) {
	query := `
		SELECT id, doctor_id, date, start_time, end_time, duration_minutes, location, custom, created_at
		FROM availability_slots
		WHERE doctor_id = $1
		ORDER BY date, start_time
	`
	args := []any{doctorID}

	if date != nil {
		query = `
			SELECT id, doctor_id, date, start_time, end_time, duration_minutes, location, custom, created_at
			FROM availability_slots
			WHERE doctor_id = $1 AND date = $2
			ORDER BY date, start_time
		`
		args = append(args, *date)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE id = $1
	`, id)
	return err
}

func (r *PgRepository) ListActiveBookingTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error) {
	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_at
		FROM bookings
		WHERE doctor_id = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		  AND status <> 'rejected'
	`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

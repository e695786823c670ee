package booking

import (
	"context"
	"errors"
	"fmt"
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

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

const bookingColumns = `id, patient_id, doctor_id, scheduled_at, reason, symptoms, type, status, rejection_reason, video_room_code, original_booking_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.PatientID,
		&b.DoctorID,
		&b.ScheduledAt,
		&b.Reason,
		&b.Symptoms,
		&b.Type,
		&b.Status,
		&b.RejectionReason,
		&b.VideoRoomCode,
		&b.OriginalBookingID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription

	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Medications,
		&p.Dosage,
		&p.Frequency,
		&p.Duration,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}

	return &p, nil
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) CreateBooking(ctx context.Context, b Booking) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (patient_id, doctor_id, scheduled_at, reason, symptoms, type, status, video_room_code, original_booking_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8, now(), now())
		RETURNING `+bookingColumns+`
	`, b.PatientID, b.DoctorID, b.ScheduledAt, b.Reason, b.Symptoms, b.Type, b.VideoRoomCode, b.OriginalBookingID)

	return scanBooking(row)
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) FindActiveBookingAt(ctx context.Context, doctorID uuid.UUID, at time.Time) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE doctor_id = $1
		  AND scheduled_at = $2
		  AND status IN ('pending', 'booked')
		LIMIT 1
	`, doctorID, at)
	return scanBooking(row)
}

func (r *PgRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus, rejectionReason *string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    rejection_reason = COALESCE($3, rejection_reason),
		    updated_at = now()
		WHERE id = $1
		  AND status = $4
		RETURNING `+bookingColumns+`
	`, id, to, rejectionReason, from)

	return scanBooking(row)
}

func (r *PgRepository) DeleteBooking(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM bookings
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PgRepository) ListBookingsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PgRepository) ListBookingsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE doctor_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`, doctorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpsertPrescription(ctx context.Context, p Prescription) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (booking_id, medications, dosage, frequency, duration, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (booking_id) DO UPDATE
		SET medications = EXCLUDED.medications,
		    dosage = EXCLUDED.dosage,
		    frequency = EXCLUDED.frequency,
		    duration = EXCLUDED.duration,
		    notes = EXCLUDED.notes,
		    updated_at = now()
		RETURNING id, booking_id, medications, dosage, frequency, duration, notes, created_at, updated_at
	`, p.BookingID, p.Medications, p.Dosage, p.Frequency, p.Duration, p.Notes)

	return scanPrescription(row)
}

func (r *PgRepository) GetPrescriptionByBooking(ctx context.Context, bookingID int64) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, booking_id, medications, dosage, frequency, duration, notes, created_at, updated_at
		FROM prescriptions
		WHERE booking_id = $1
	`, bookingID)
	return scanPrescription(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

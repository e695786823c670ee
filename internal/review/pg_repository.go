package review

import (
	"context"
	"errors"

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

func scanReview(row pgx.Row) (*Review, error) {
	var r Review

	err := row.Scan(
		&r.ID,
		&r.AppointmentID,
		&r.DoctorID,
		&r.PatientID,
		&r.BehaviourRating,
		&r.RecommendationRating,
		&r.Comment,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (r *PgRepository) GetAppointmentRef(ctx context.Context, appointmentID int64) (*AppointmentRef, error) {
	var ref AppointmentRef

	err := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, status
		FROM bookings
		WHERE id = $1
	`, appointmentID).Scan(&ref.ID, &ref.DoctorID, &ref.PatientID, &ref.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &ref, nil
}

func (r *PgRepository) CreateReview(ctx context.Context, rev Review) (*Review, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (appointment_id, doctor_id, patient_id, behaviour_rating, recommendation_rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (appointment_id) DO NOTHING
		RETURNING id, appointment_id, doctor_id, patient_id, behaviour_rating, recommendation_rating, comment, created_at
	`, rev.AppointmentID, rev.DoctorID, rev.PatientID, rev.BehaviourRating, rev.RecommendationRating, rev.Comment)

	created, err := scanReview(row)
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			// Conflict: a review for this appointment already landed.
			return nil, ErrReviewExists
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) FindReviewByAppointment(ctx context.Context, appointmentID int64) (*Review, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, doctor_id, patient_id, behaviour_rating, recommendation_rating, comment, created_at
		FROM reviews
		WHERE appointment_id = $1
	`, appointmentID)
	return scanReview(row)
}

func (r *PgRepository) ListReviewsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, doctor_id, patient_id, behaviour_rating, recommendation_rating, comment, created_at
		FROM reviews
		WHERE doctor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, doctorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetDoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	stats := DoctorStats{DoctorID: doctorID}

	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       COALESCE(avg(behaviour_rating), 0),
		       COALESCE(avg(recommendation_rating), 0)
		FROM reviews
		WHERE doctor_id = $1
	`, doctorID).Scan(&stats.ReviewCount, &stats.AvgBehaviour, &stats.AvgRecommendation)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

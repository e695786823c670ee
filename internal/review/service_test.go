package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curelink/booking-engine/internal/booking"
)

type mockRepo struct {
	appointments map[int64]*AppointmentRef
	reviews      map[int64]*Review
	nextID       int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		appointments: make(map[int64]*AppointmentRef),
		reviews:      make(map[int64]*Review),
	}
}

func (m *mockRepo) GetAppointmentRef(_ context.Context, appointmentID int64) (*AppointmentRef, error) {
	a, ok := m.appointments[appointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (m *mockRepo) CreateReview(_ context.Context, r Review) (*Review, error) {
	if _, ok := m.reviews[r.AppointmentID]; ok {
		return nil, ErrReviewExists
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	m.reviews[r.AppointmentID] = &r
	return &r, nil
}

func (m *mockRepo) FindReviewByAppointment(_ context.Context, appointmentID int64) (*Review, error) {
	r, ok := m.reviews[appointmentID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return r, nil
}

func (m *mockRepo) ListReviewsByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]Review, error) {
	var result []Review
	for _, r := range m.reviews {
		if r.DoctorID == doctorID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRepo) GetDoctorStats(_ context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	stats := &DoctorStats{DoctorID: doctorID}
	var behaviourSum, recommendSum int
	for _, r := range m.reviews {
		if r.DoctorID != doctorID {
			continue
		}
		stats.ReviewCount++
		behaviourSum += r.BehaviourRating
		recommendSum += r.RecommendationRating
	}
	if stats.ReviewCount > 0 {
		stats.AvgBehaviour = float64(behaviourSum) / float64(stats.ReviewCount)
		stats.AvgRecommendation = float64(recommendSum) / float64(stats.ReviewCount)
	}
	return stats, nil
}

func seedAppointment(repo *mockRepo, status booking.BookingStatus) (int64, uuid.UUID, uuid.UUID) {
	doctorID := uuid.New()
	patientID := uuid.New()
	repo.appointments[1] = &AppointmentRef{ID: 1, DoctorID: doctorID, PatientID: patientID, Status: status}
	return 1, doctorID, patientID
}

func TestCreateReview(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	apptID, _, patientID := seedAppointment(repo, booking.StatusCompleted)

	comment := "very thorough"
	rev, err := svc.Create(context.Background(), CreateInput{
		AppointmentID:        apptID,
		PatientID:            patientID,
		BehaviourRating:      5,
		RecommendationRating: 4,
		Comment:              &comment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if rev.BehaviourRating != 5 || rev.RecommendationRating != 4 {
		t.Errorf("ratings not stored: %+v", rev)
	}

	// A second review for the same appointment must fail.
	_, err = svc.Create(context.Background(), CreateInput{
		AppointmentID:        apptID,
		PatientID:            patientID,
		BehaviourRating:      3,
		RecommendationRating: 3,
	})
	if !errors.Is(err, ErrReviewExists) {
		t.Errorf("expected ErrReviewExists, got %v", err)
	}
	if len(repo.reviews) != 1 {
		t.Errorf("expected exactly one review, got %d", len(repo.reviews))
	}
}

func TestCreateReviewGuards(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	apptID, _, patientID := seedAppointment(repo, booking.StatusBooked)

	// Not completed yet.
	_, err := svc.Create(context.Background(), CreateInput{
		AppointmentID:        apptID,
		PatientID:            patientID,
		BehaviourRating:      5,
		RecommendationRating: 5,
	})
	if !errors.Is(err, ErrAppointmentNotCompleted) {
		t.Errorf("expected ErrAppointmentNotCompleted, got %v", err)
	}

	repo.appointments[apptID].Status = booking.StatusCompleted

	// Someone else's appointment.
	_, err = svc.Create(context.Background(), CreateInput{
		AppointmentID:        apptID,
		PatientID:            uuid.New(),
		BehaviourRating:      5,
		RecommendationRating: 5,
	})
	if !errors.Is(err, ErrNotAppointmentPatient) {
		t.Errorf("expected ErrNotAppointmentPatient, got %v", err)
	}

	// Unknown appointment.
	_, err = svc.Create(context.Background(), CreateInput{
		AppointmentID:        999,
		PatientID:            patientID,
		BehaviourRating:      5,
		RecommendationRating: 5,
	})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}

	// Ratings outside 1-5.
	for _, rating := range []int{0, 6, -1} {
		_, err = svc.Create(context.Background(), CreateInput{
			AppointmentID:        apptID,
			PatientID:            patientID,
			BehaviourRating:      rating,
			RecommendationRating: 3,
		})
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}

	if len(repo.reviews) != 0 {
		t.Errorf("reviews persisted despite failed guards: %d", len(repo.reviews))
	}
}

func TestDoctorStats(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	doctorID := uuid.New()

	for i, ratings := range [][2]int{{5, 4}, {3, 2}, {4, 3}} {
		apptID := int64(i + 1)
		patientID := uuid.New()
		repo.appointments[apptID] = &AppointmentRef{ID: apptID, DoctorID: doctorID, PatientID: patientID, Status: booking.StatusCompleted}
		if _, err := svc.Create(context.Background(), CreateInput{
			AppointmentID:        apptID,
			PatientID:            patientID,
			BehaviourRating:      ratings[0],
			RecommendationRating: ratings[1],
		}); err != nil {
			t.Fatalf("create review %d: %v", apptID, err)
		}
	}

	stats, err := svc.DoctorStats(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.ReviewCount != 3 {
		t.Errorf("expected 3 reviews, got %d", stats.ReviewCount)
	}
	if stats.AvgBehaviour != 4.0 {
		t.Errorf("expected avg behaviour 4.0, got %f", stats.AvgBehaviour)
	}
	if stats.AvgRecommendation != 3.0 {
		t.Errorf("expected avg recommendation 3.0, got %f", stats.AvgRecommendation)
	}
}

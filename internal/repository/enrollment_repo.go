package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

// EnrollmentRepository reads student-to-session links.
type EnrollmentRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.SessionEnrollment, error)
	// CountBySessions returns enrollment counts grouped by session id. The
	// derived count is the source of truth for a session's student total.
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SessionEnrollment, error) {
	var enrollments []models.SessionEnrollment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	type row struct {
		SessionID string
		Total     int
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.SessionEnrollment{}).
		Select("session_id, COUNT(*) AS total").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.SessionID] = r.Total
	}

	return counts, nil
}

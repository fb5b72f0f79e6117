package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

// SessionFilter narrows a relevant-session query. AsOf is an inclusive
// YYYY-MM-DD lower bound on the session date.
type SessionFilter struct {
	AsOf       string
	ActiveOnly bool
}

// SessionRepository reads scheduled sessions. Sessions are owned by the
// external scheduling backend; this service never creates them.
type SessionRepository interface {
	ListUpcomingByTeacher(ctx context.Context, teacherID string, filter SessionFilter) ([]models.Session, error)
	ListUpcomingByStudent(ctx context.Context, studentID string, filter SessionFilter) ([]models.Session, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) ListUpcomingByTeacher(ctx context.Context, teacherID string, filter SessionFilter) ([]models.Session, error) {
	var sessions []models.Session
	query := r.applyFilter(r.db.WithContext(ctx).Where("teacher_id = ?", teacherID), filter)
	if err := query.Order("date ASC, start_time ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *sessionRepository) ListUpcomingByStudent(ctx context.Context, studentID string, filter SessionFilter) ([]models.Session, error) {
	var sessions []models.Session
	query := r.db.WithContext(ctx).
		Joins("JOIN session_enrollments ON session_enrollments.session_id = sessions.id").
		Where("session_enrollments.student_id = ?", studentID)
	query = r.applyFilter(query, filter)
	if err := query.Order("sessions.date ASC, sessions.start_time ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *sessionRepository) applyFilter(query *gorm.DB, filter SessionFilter) *gorm.DB {
	if filter.AsOf != "" {
		query = query.Where("sessions.date >= ?", filter.AsOf)
	}
	if filter.ActiveOnly {
		query = query.Where("sessions.status = ?", models.SessionStatusActive)
	}
	return query
}

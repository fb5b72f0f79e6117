package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

// AvailabilityRepository stores offered and requested time blocks.
type AvailabilityRepository interface {
	CreateForTeacher(ctx context.Context, availability *models.TeacherAvailability) error
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error)
	CreateForStudent(ctx context.Context, availability *models.StudentAvailability) error
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentAvailability, error)
}

type availabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) CreateForTeacher(ctx context.Context, availability *models.TeacherAvailability) error {
	return r.db.WithContext(ctx).Create(availability).Error
}

func (r *availabilityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	var blocks []models.TeacherAvailability
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("date ASC, start_time ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

func (r *availabilityRepository) CreateForStudent(ctx context.Context, availability *models.StudentAvailability) error {
	return r.db.WithContext(ctx).Create(availability).Error
}

func (r *availabilityRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentAvailability, error) {
	var blocks []models.StudentAvailability
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date ASC, start_time ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

// StudentRepository provides access to student role records.
type StudentRepository interface {
	GetByID(ctx context.Context, userID string) (models.Student, error)
	CreateIfAbsent(ctx context.Context, student *models.Student) (bool, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, userID string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "user_id = ?", userID).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) CreateIfAbsent(ctx context.Context, student *models.Student) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(student)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

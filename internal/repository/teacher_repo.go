package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

// TeacherRepository provides access to teacher role records.
type TeacherRepository interface {
	GetByID(ctx context.Context, id string) (models.Teacher, error)
	// CreateIfAbsent inserts the record unless one already exists for the
	// principal. It reports whether a row was actually written, so concurrent
	// duplicate provisioning attempts converge on a single record.
	CreateIfAbsent(ctx context.Context, teacher *models.Teacher) (bool, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) GetByID(ctx context.Context, id string) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, "id = ?", id).Error; err != nil {
		return models.Teacher{}, err
	}

	return teacher, nil
}

func (r *teacherRepository) CreateIfAbsent(ctx context.Context, teacher *models.Teacher) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(teacher)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

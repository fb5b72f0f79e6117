package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

func TestTeacherRepositoryCreateIfAbsentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeacherRepository(db)
	id := uuid.NewString()

	created, err := repo.CreateIfAbsent(context.Background(), &models.Teacher{ID: id, Name: "Dewi", Email: "dewi@example.com"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), &models.Teacher{ID: id, Name: "Dewi Again", Email: "dewi@example.com"})
	require.NoError(t, err)
	require.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Teacher{}).Where("id = ?", id).Count(&count).Error)
	require.Equal(t, int64(1), count)

	teacher, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Dewi", teacher.Name, "first write wins")
}

func TestStudentRepositoryCreateIfAbsentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	id := uuid.NewString()

	created, err := repo.CreateIfAbsent(context.Background(), &models.Student{UserID: id, Name: "Sari", Email: "sari@example.com"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), &models.Student{UserID: id, Name: "Sari", Email: "sari@example.com"})
	require.NoError(t, err)
	require.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Where("user_id = ?", id).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAvailabilityRepositoryOrdersByDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAvailabilityRepository(db)
	teacherID := uuid.NewString()

	later := models.TeacherAvailability{ID: uuid.NewString(), TeacherID: teacherID, Date: "2026-09-10", StartTime: "14:00:00", EndTime: "16:00:00", Subject: "Go"}
	earlier := models.TeacherAvailability{ID: uuid.NewString(), TeacherID: teacherID, Date: "2026-09-08", StartTime: "14:00:00", EndTime: "16:00:00", Subject: "Go"}
	require.NoError(t, repo.CreateForTeacher(context.Background(), &later))
	require.NoError(t, repo.CreateForTeacher(context.Background(), &earlier))

	blocks, err := repo.ListByTeacher(context.Background(), teacherID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, earlier.ID, blocks[0].ID)
}

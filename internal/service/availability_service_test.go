package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/models"
	"github.com/noah-isme/tutorlink-api/internal/repository"
)

func newAvailabilityService(t *testing.T) AvailabilityService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TeacherAvailability{}, &models.StudentAvailability{}))
	return NewAvailabilityService(repository.NewAvailabilityRepository(db), validator.New(), testLogger())
}

func TestAvailabilityAddAndListForTeacher(t *testing.T) {
	svc := newAvailabilityService(t)

	created, err := svc.AddForTeacher(context.Background(), "t-1", dto.AvailabilityCreateRequest{
		Date:      "2026-09-07",
		StartTime: "14:00:00",
		EndTime:   "16:00:00",
		Subject:   "Python",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "t-1", created.OwnerID)

	blocks, err := svc.ListForTeacher(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "Python", blocks[0].Subject)
}

func TestAvailabilityRejectsMalformedDate(t *testing.T) {
	svc := newAvailabilityService(t)

	_, err := svc.AddForStudent(context.Background(), "st-1", dto.AvailabilityCreateRequest{
		Date:      "next monday",
		StartTime: "14:00:00",
		EndTime:   "16:00:00",
		Subject:   "Python",
	})
	require.Error(t, err)
}

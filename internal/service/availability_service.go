package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/models"
	"github.com/noah-isme/tutorlink-api/internal/repository"
)

// AvailabilityService records offered and requested time blocks consumed by
// the scheduling backend when matching students to teachers.
type AvailabilityService interface {
	AddForTeacher(ctx context.Context, teacherID string, req dto.AvailabilityCreateRequest) (dto.AvailabilityResponse, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]dto.AvailabilityResponse, error)
	AddForStudent(ctx context.Context, studentID string, req dto.AvailabilityCreateRequest) (dto.AvailabilityResponse, error)
	ListForStudent(ctx context.Context, studentID string) ([]dto.AvailabilityResponse, error)
}

type availabilityService struct {
	repo      repository.AvailabilityRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAvailabilityService constructs the availability service.
func NewAvailabilityService(repo repository.AvailabilityRepository, validate *validator.Validate, logger zerolog.Logger) AvailabilityService {
	return &availabilityService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "availability_service").Logger(),
	}
}

func (s *availabilityService) AddForTeacher(ctx context.Context, teacherID string, req dto.AvailabilityCreateRequest) (dto.AvailabilityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AvailabilityResponse{}, err
	}

	block := models.TeacherAvailability{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subject:   req.Subject,
	}
	if err := s.repo.CreateForTeacher(ctx, &block); err != nil {
		return dto.AvailabilityResponse{}, err
	}

	return dto.NewTeacherAvailabilityResponse(block), nil
}

func (s *availabilityService) ListForTeacher(ctx context.Context, teacherID string) ([]dto.AvailabilityResponse, error) {
	blocks, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AvailabilityResponse, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, dto.NewTeacherAvailabilityResponse(block))
	}
	return out, nil
}

func (s *availabilityService) AddForStudent(ctx context.Context, studentID string, req dto.AvailabilityCreateRequest) (dto.AvailabilityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AvailabilityResponse{}, err
	}

	block := models.StudentAvailability{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subject:   req.Subject,
	}
	if err := s.repo.CreateForStudent(ctx, &block); err != nil {
		return dto.AvailabilityResponse{}, err
	}

	return dto.NewStudentAvailabilityResponse(block), nil
}

func (s *availabilityService) ListForStudent(ctx context.Context, studentID string) ([]dto.AvailabilityResponse, error) {
	blocks, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AvailabilityResponse, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, dto.NewStudentAvailabilityResponse(block))
	}
	return out, nil
}

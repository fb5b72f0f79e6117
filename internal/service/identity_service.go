package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/models"
	"github.com/noah-isme/tutorlink-api/internal/observability"
	"github.com/noah-isme/tutorlink-api/internal/repository"
)

// IdentityService resolves an authenticated principal to a role record,
// provisioning one exactly once.
type IdentityService interface {
	Resolve(ctx context.Context, principal dto.Principal) dto.RoleResolution
}

// SeedTeacherCheck decides whether a previously unseen principal should be
// provisioned as a teacher. Everyone else becomes a student.
type SeedTeacherCheck func(principalID string) bool

type identityService struct {
	teachers  repository.TeacherRepository
	students  repository.StudentRepository
	isTeacher SeedTeacherCheck
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewIdentityService constructs the identity resolver.
func NewIdentityService(teachers repository.TeacherRepository, students repository.StudentRepository, isTeacher SeedTeacherCheck, timeout time.Duration, logger zerolog.Logger) IdentityService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if isTeacher == nil {
		isTeacher = func(string) bool { return false }
	}

	return &identityService{
		teachers:  teachers,
		students:  students,
		isTeacher: isTeacher,
		timeout:   timeout,
		logger:    logger.With().Str("component", "identity_service").Logger(),
	}
}

// Resolve looks up an existing role record and provisions one when neither
// exists. It never returns an error: failures degrade to the unresolved role
// and the next call retries. Repeated and concurrent calls converge on
// exactly one role record per principal.
func (s *identityService) Resolve(ctx context.Context, principal dto.Principal) dto.RoleResolution {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.teachers.GetByID(ctx, principal.ID); err == nil {
		observability.IdentityResolutions().WithLabelValues(dto.RoleTeacher, "existing").Inc()
		return dto.RoleResolution{Role: dto.RoleTeacher}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		// A failed lookup is treated as "not found"; the idempotent insert
		// below keeps redundant provisioning attempts harmless.
		s.logger.Warn().Err(err).Str("principal_id", principal.ID).Msg("teacher lookup failed")
	}

	if _, err := s.students.GetByID(ctx, principal.ID); err == nil {
		observability.IdentityResolutions().WithLabelValues(dto.RoleStudent, "existing").Inc()
		return dto.RoleResolution{Role: dto.RoleStudent}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn().Err(err).Str("principal_id", principal.ID).Msg("student lookup failed")
	}

	name := displayName(principal)

	if s.isTeacher(principal.ID) {
		created, err := s.teachers.CreateIfAbsent(ctx, &models.Teacher{
			ID:    principal.ID,
			Name:  name,
			Email: principal.Email,
		})
		if err != nil {
			observability.IdentityResolutions().WithLabelValues(dto.RoleTeacher, "error").Inc()
			s.logger.Error().Err(err).Str("principal_id", principal.ID).Msg("failed to provision teacher record")
			return dto.RoleResolution{Role: dto.RoleUnresolved}
		}

		observability.IdentityResolutions().WithLabelValues(dto.RoleTeacher, provisionOutcome(created)).Inc()
		return dto.RoleResolution{Role: dto.RoleTeacher, Provisioned: created}
	}

	created, err := s.students.CreateIfAbsent(ctx, &models.Student{
		UserID: principal.ID,
		Name:   name,
		Email:  principal.Email,
	})
	if err != nil {
		observability.IdentityResolutions().WithLabelValues(dto.RoleStudent, "error").Inc()
		s.logger.Error().Err(err).Str("principal_id", principal.ID).Msg("failed to provision student record")
		return dto.RoleResolution{Role: dto.RoleUnresolved}
	}

	observability.IdentityResolutions().WithLabelValues(dto.RoleStudent, provisionOutcome(created)).Inc()
	return dto.RoleResolution{Role: dto.RoleStudent, Provisioned: created}
}

func provisionOutcome(created bool) string {
	if created {
		return "provisioned"
	}
	return "existing"
}

// displayName picks the best available name: metadata name, metadata full
// name, the email local part, then a generic placeholder.
func displayName(principal dto.Principal) string {
	if name := strings.TrimSpace(principal.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(principal.FullName); name != "" {
		return name
	}
	if at := strings.Index(principal.Email, "@"); at > 0 {
		return principal.Email[:at]
	}
	return "User"
}

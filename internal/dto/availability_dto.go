package dto

import "github.com/noah-isme/tutorlink-api/internal/models"

// AvailabilityCreateRequest describes a block of offered or requested time.
type AvailabilityCreateRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04:05"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04:05"`
	Subject   string `json:"subject" validate:"required,min=1,max=255"`
}

// AvailabilityResponse is the serialized representation of an availability block.
type AvailabilityResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Subject   string `json:"subject"`
}

// NewTeacherAvailabilityResponse converts a teacher availability model into a DTO.
func NewTeacherAvailabilityResponse(a models.TeacherAvailability) AvailabilityResponse {
	return AvailabilityResponse{
		ID:        a.ID,
		OwnerID:   a.TeacherID,
		Date:      a.Date,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Subject:   a.Subject,
	}
}

// NewStudentAvailabilityResponse converts a student availability model into a DTO.
func NewStudentAvailabilityResponse(a models.StudentAvailability) AvailabilityResponse {
	return AvailabilityResponse{
		ID:        a.ID,
		OwnerID:   a.StudentID,
		Date:      a.Date,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Subject:   a.Subject,
	}
}

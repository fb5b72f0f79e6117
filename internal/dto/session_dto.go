package dto

import (
	"time"

	"github.com/noah-isme/tutorlink-api/internal/models"
)

// SessionResponse is the serialized representation of a scheduled session.
// TotalStudents carries the count derived from enrollment rows; the stored
// column on the session is treated as a denormalized cache.
type SessionResponse struct {
	ID            string `json:"id"`
	TeacherID     string `json:"teacher_id"`
	Subject       string `json:"subject"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	MeetLink      string `json:"meet_link,omitempty"`
	Status        string `json:"status"`
	TotalStudents int    `json:"total_students"`
}

// NewSessionResponse converts a model into a DTO.
func NewSessionResponse(session models.Session) SessionResponse {
	return SessionResponse{
		ID:            session.ID,
		TeacherID:     session.TeacherID,
		Subject:       session.Subject,
		Date:          session.Date,
		StartTime:     session.StartTime,
		EndTime:       session.EndTime,
		MeetLink:      session.MeetLink,
		Status:        session.Status,
		TotalStudents: session.TotalStudents,
	}
}

// NewSessionResponseSlice converts a slice of models into DTOs.
func NewSessionResponseSlice(sessions []models.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, NewSessionResponse(session))
	}
	return out
}

// FeedSnapshot is one applied state of a principal's relevant-session list.
// Stale marks a snapshot that is being served from last-known-good data after
// a failed refresh.
type FeedSnapshot struct {
	Sequence  uint64            `json:"sequence"`
	Sessions  []SessionResponse `json:"sessions"`
	Stale     bool              `json:"stale"`
	UpdatedAt time.Time         `json:"updated_at"`
}

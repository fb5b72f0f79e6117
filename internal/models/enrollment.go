package models

import "time"

// SessionEnrollment links a student to a session.
type SessionEnrollment struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID string    `gorm:"size:64;uniqueIndex:idx_session_student;not null" json:"session_id"`
	StudentID string    `gorm:"size:64;uniqueIndex:idx_session_student;not null" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

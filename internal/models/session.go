package models

import "time"

// Session status values. Sessions are created and mutated by the external
// scheduling backend; this service only reads them.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// Session is a scheduled teaching block. Date is a calendar date in
// YYYY-MM-DD form and the time columns are HH:MM:SS, matching the wire
// format the scheduling backend writes.
type Session struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	TeacherID     string    `gorm:"size:64;index;not null" json:"teacher_id"`
	Subject       string    `gorm:"size:255;not null" json:"subject"`
	Date          string    `gorm:"size:10;index;not null" json:"date"`
	StartTime     string    `gorm:"size:8;not null" json:"start_time"`
	EndTime       string    `gorm:"size:8;not null" json:"end_time"`
	MeetLink      string    `gorm:"size:512" json:"meet_link,omitempty"`
	Status        string    `gorm:"size:32;default:active" json:"status"`
	TotalStudents int       `gorm:"default:0" json:"total_students"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

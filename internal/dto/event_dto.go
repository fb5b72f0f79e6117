package dto

import "time"

// Change event resources and actions accepted from the scheduling backend.
const (
	EventResourceSessions    = "sessions"
	EventResourceEnrollments = "session_enrollments"

	EventActionInsert = "insert"
	EventActionUpdate = "update"
	EventActionDelete = "delete"
)

// ChangeEvent notifies the service that the scheduling backend mutated a
// session or enrollment row.
type ChangeEvent struct {
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id,omitempty"`
	TeacherID string    `json:"teacher_id,omitempty"`
	StudentID string    `json:"student_id,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

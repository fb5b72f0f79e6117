package models

import "time"

// TeacherAvailability records a block of time a teacher has offered for
// sessions. Consumed by the scheduling backend when matching students.
type TeacherAvailability struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	TeacherID string    `gorm:"size:64;index;not null" json:"teacher_id"`
	Date      string    `gorm:"size:10;not null" json:"date"`
	StartTime string    `gorm:"size:8;not null" json:"start_time"`
	EndTime   string    `gorm:"size:8;not null" json:"end_time"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentAvailability records when a student is free for sessions.
type StudentAvailability struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	StudentID string    `gorm:"size:64;index;not null" json:"student_id"`
	Date      string    `gorm:"size:10;not null" json:"date"`
	StartTime string    `gorm:"size:8;not null" json:"start_time"`
	EndTime   string    `gorm:"size:8;not null" json:"end_time"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

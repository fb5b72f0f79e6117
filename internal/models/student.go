package models

import "time"

// Student marks an authenticated principal as a student.
type Student struct {
	UserID    string    `gorm:"primaryKey;size:64;column:user_id" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

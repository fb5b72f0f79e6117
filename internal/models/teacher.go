package models

import "time"

// Teacher marks an authenticated principal as a teacher. The primary key is
// the principal identifier issued by the auth provider, so at most one record
// can exist per principal.
type Teacher struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a moderator (docente) account. Students never log in; they
// join groups with a code and a display name.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	FirstName string         `json:"first_name" gorm:"not null"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Activities []Activity `json:"activities,omitempty" gorm:"foreignKey:UserID"`
}

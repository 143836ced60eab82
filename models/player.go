package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is a participant within a Group. Join time defines turn order.
type Player struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	GroupID   uint           `json:"group_id" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	Score     int            `json:"score" gorm:"not null;default:0"`
	JoinedAt  time.Time      `json:"joined_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Group Group `json:"group,omitempty"`
}

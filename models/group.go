package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is the durable record of one game session. The live session
// document lives in the store adapter; this row keeps the result for
// post-game aggregation.
type Group struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ActivityID uint           `json:"activity_id" gorm:"not null"`
	Code       string         `json:"code" gorm:"uniqueIndex;not null"`
	Name       string         `json:"name" gorm:"not null"`
	GroupIndex int            `json:"group_index" gorm:"not null"`
	Status     string         `json:"status" gorm:"not null;default:'waiting'"` // waiting, playing, finished
	Score      int            `json:"score" gorm:"not null;default:0"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Activity Activity `json:"activity,omitempty"`
	Players  []Player `json:"players,omitempty" gorm:"foreignKey:GroupID"`
}

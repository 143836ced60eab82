package models

import (
	"time"

	"gorm.io/gorm"
)

// Activity groups a set of Groups under one moderator and one shared
// configuration. Configuration is immutable once created.
type Activity struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       uint           `json:"user_id" gorm:"not null"`
	Name         string         `json:"name" gorm:"not null"`
	Code         string         `json:"code" gorm:"uniqueIndex;not null"`
	BankID       string         `json:"bank_id" gorm:"not null"`
	NumGroups    int            `json:"num_groups" gorm:"not null"`
	MaxPlayers   int            `json:"max_players" gorm:"not null"`
	RoundSeconds int            `json:"round_seconds" gorm:"not null;default:90"`
	NumRounds    int            `json:"num_rounds" gorm:"not null"`
	Status       string         `json:"status" gorm:"not null;default:'active'"` // active, finished
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User   User    `json:"user,omitempty"`
	Groups []Group `json:"groups,omitempty" gorm:"foreignKey:ActivityID"`
}

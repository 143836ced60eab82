package services

import (
	"errors"
	"testing"

	"ahorcado/models"
)

func TestValidateJoin(t *testing.T) {
	roster := []models.Player{
		{ID: "p1", Name: "Mateo"},
		{ID: "p2", Name: "Lucía"},
	}

	tests := []struct {
		name       string
		roster     []models.Player
		player     string
		maxPlayers int
		wantErr    error
	}{
		{"open seat", roster, "Valentina", 4, nil},
		{"name taken", roster, "Mateo", 4, ErrNameTaken},
		{"group full", roster, "Valentina", 2, ErrGroupFull},
		{"name checked before capacity", roster, "Lucía", 2, ErrNameTaken},
		{"no cap configured", roster, "Valentina", 0, nil},
		{"empty roster", nil, "Mateo", 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJoin(tt.roster, tt.player, tt.maxPlayers)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateJoin() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

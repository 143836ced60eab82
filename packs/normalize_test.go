package packs

import "testing"

func TestNormalizeWord(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"perú", "PERU"},
		{"Perú", "PERU"},
		{"PERU", "PERU"},
		{"vicuña", "VICUÑA"},
		{"VICUÑA", "VICUÑA"},
		{"cañón", "CAÑON"},
		{"camión", "CAMION"},
		{"Símbolos", "SIMBOLOS"},
		{"empatía", "EMPATIA"},
		// Decomposed n + combining tilde must still come out as Ñ.
		{"niño", "NIÑO"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeWord(tt.input); got != tt.want {
				t.Errorf("NormalizeWord(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeWordIdempotent(t *testing.T) {
	inputs := []string{"perú", "vicuña", "ñandú", "AREQUIPA", "niño", "Máncora"}
	for _, input := range inputs {
		once := NormalizeWord(input)
		twice := NormalizeWord(once)
		if once != twice {
			t.Errorf("NormalizeWord not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestIsGameLetter(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{'A', true},
		{'Z', true},
		{'Ñ', true},
		{'a', false},
		{'ñ', false},
		{'É', false},
		{'1', false},
		{' ', false},
	}

	for _, tt := range tests {
		if got := IsGameLetter(tt.r); got != tt.want {
			t.Errorf("IsGameLetter(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

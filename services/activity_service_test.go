package services

import (
	"strings"
	"testing"
)

func TestNewJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := newJoinCode()
		if err != nil {
			t.Fatalf("newJoinCode() error = %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("len(code) = %d, want %d", len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// 50 draws from a 32^6 space colliding down to a handful would mean
	// the generator is broken.
	if len(seen) < 40 {
		t.Errorf("only %d distinct codes in 50 draws", len(seen))
	}
}

package packs

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SpecialLetter is the one accented letter that is a letter of its own in
// the game alphabet. It survives normalization intact.
const SpecialLetter = 'Ñ'

// NormalizeWord canonicalizes a word for comparison: upper-case, accents
// stripped via canonical decomposition, Ñ preserved. Idempotent.
func NormalizeWord(word string) string {
	// Compose first so a decomposed N + combining tilde is seen as Ñ.
	upper := strings.ToUpper(norm.NFC.String(word))

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if r == SpecialLetter {
			b.WriteRune(r)
			continue
		}
		for _, d := range norm.NFD.String(string(r)) {
			if unicode.Is(unicode.Mn, d) {
				continue
			}
			b.WriteRune(d)
		}
	}
	return b.String()
}

// IsGameLetter reports whether r belongs to the comparison alphabet A-Z
// plus Ñ.
func IsGameLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || r == SpecialLetter
}

package packs

import (
	"strings"
	"testing"
)

func TestSampleUnknownBank(t *testing.T) {
	if _, err := Sample("no-such-bank", 3); err != ErrUnknownBank {
		t.Fatalf("Sample with unknown bank: got %v, want ErrUnknownBank", err)
	}
}

func TestSampleDrawsDistinctEntries(t *testing.T) {
	entries, err := Sample(BankPeruPersonalSocial, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Fatalf("got %d entries, want 10", len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Word] {
			t.Errorf("word %q drawn twice in one sample", e.Word)
		}
		seen[e.Word] = true
	}
}

func TestSampleCapsAtBankSize(t *testing.T) {
	bank, err := Get(BankPeruPersonalSocial)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := Sample(BankPeruPersonalSocial, len(bank.Entries)+100)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(bank.Entries) {
		t.Errorf("got %d entries, want full bank of %d", len(entries), len(bank.Entries))
	}
}

func TestSampleNormalizesWords(t *testing.T) {
	entries, err := Sample(BankPeruPersonalSocial, 20)
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		if e.Word != NormalizeWord(e.Word) {
			t.Errorf("word %q not normalized", e.Word)
		}
		for _, r := range e.Word {
			if !IsGameLetter(r) {
				t.Errorf("word %q contains rune %q outside the game alphabet", e.Word, r)
			}
		}
		if e.Topic == "" || e.Hint == "" {
			t.Errorf("entry %q missing topic or hint", e.Word)
		}
	}
}

func TestSampleShufflesOrder(t *testing.T) {
	bank, err := Get(BankPeruPersonalSocial)
	if err != nil {
		t.Fatal(err)
	}

	first, err := Sample(BankPeruPersonalSocial, len(bank.Entries))
	if err != nil {
		t.Fatal(err)
	}

	// Two full draws landing in the same order twenty times in a row is
	// practically impossible for a bank this size.
	for attempt := 0; attempt < 20; attempt++ {
		next, err := Sample(BankPeruPersonalSocial, len(bank.Entries))
		if err != nil {
			t.Fatal(err)
		}
		if joinWords(next) != joinWords(first) {
			return
		}
	}
	t.Error("twenty samples produced identical orderings")
}

func joinWords(entries []Entry) string {
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
	}
	return strings.Join(words, ",")
}

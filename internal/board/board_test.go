package board

import "testing"

func TestGenerateDeterministic(t *testing.T) {
	words := DefaultWords()

	for _, code := range []string{"ABCDEF", "QQQQQQ", "Z9Z9Z9", "KNIGHT"} {
		a, err := Generate(code, words)
		if err != nil {
			t.Fatalf("Generate(%q) error: %v", code, err)
		}
		b, err := Generate(code, words)
		if err != nil {
			t.Fatalf("Generate(%q) error: %v", code, err)
		}

		if a.Starting != b.Starting {
			t.Errorf("code %q: starting team differs (%v vs %v)", code, a.Starting, b.Starting)
		}
		for i := 0; i < Size; i++ {
			if a.Words[i] != b.Words[i] {
				t.Errorf("code %q: word %d differs (%q vs %q)", code, i, a.Words[i], b.Words[i])
			}
			if a.Roles[i] != b.Roles[i] {
				t.Errorf("code %q: role %d differs (%v vs %v)", code, i, a.Roles[i], b.Roles[i])
			}
		}
	}
}

func TestGenerateRoleCounts(t *testing.T) {
	words := DefaultWords()

	for _, code := range []string{"ABCDEF", "GHJKMN", "PQRSTV", "WXYZ23", "456789"} {
		b, err := Generate(code, words)
		if err != nil {
			t.Fatalf("Generate(%q) error: %v", code, err)
		}

		counts := make(map[CardRole]int)
		for _, r := range b.Roles {
			counts[r]++
		}

		if got := counts[TeamRole(b.Starting)]; got != 9 {
			t.Errorf("code %q: starting team has %d cards, want 9", code, got)
		}
		if got := counts[TeamRole(b.Starting.Other())]; got != 8 {
			t.Errorf("code %q: other team has %d cards, want 8", code, got)
		}
		if counts[RoleNeutral] != 7 {
			t.Errorf("code %q: %d neutral cards, want 7", code, counts[RoleNeutral])
		}
		if counts[RoleAssassin] != 1 {
			t.Errorf("code %q: %d assassin cards, want 1", code, counts[RoleAssassin])
		}
	}
}

func TestGenerateUniqueWords(t *testing.T) {
	b, err := Generate("ABCDEF", DefaultWords())
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, w := range b.Words {
		if w == "" {
			t.Error("empty word on board")
		}
		if seen[w] {
			t.Errorf("duplicate word %q", w)
		}
		seen[w] = true
	}
}

func TestGenerateInsufficientWords(t *testing.T) {
	_, err := Generate("ABCDEF", []string{"ONE", "TWO", "THREE"})
	if err != ErrInsufficientWords {
		t.Errorf("expected ErrInsufficientWords, got %v", err)
	}
}

func TestDifferentCodesDifferentBoards(t *testing.T) {
	words := DefaultWords()

	a, err := Generate("ABCDEF", words)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate("FEDCBA", words)
	if err != nil {
		t.Fatal(err)
	}

	same := true
	for i := 0; i < Size; i++ {
		if a.Words[i] != b.Words[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct codes produced identical word layouts")
	}
}

func TestHashCode(t *testing.T) {
	tests := []struct {
		code string
	}{
		{""},
		{"A"},
		{"ABCDEF"},
		{"ZZZZZZZZZZZZ"}, // long enough to wrap 32 bits
	}

	for _, tt := range tests {
		h := HashCode(tt.code)
		if h < 0 {
			t.Errorf("HashCode(%q) = %d, want non-negative", tt.code, h)
		}
		if h != HashCode(tt.code) {
			t.Errorf("HashCode(%q) not stable", tt.code)
		}
	}

	// Single character hashes to its code point.
	if got := HashCode("A"); got != 65 {
		t.Errorf("HashCode(\"A\") = %d, want 65", got)
	}
	// Two characters: 'A'*31 + 'B'.
	if got := HashCode("AB"); got != 65*31+66 {
		t.Errorf("HashCode(\"AB\") = %d, want %d", got, 65*31+66)
	}
}

func TestDefaultWordsSufficient(t *testing.T) {
	words := DefaultWords()
	if len(words) < Size {
		t.Fatalf("default word list has %d entries, need at least %d", len(words), Size)
	}

	seen := make(map[string]bool)
	for _, w := range words {
		if seen[w] {
			t.Errorf("duplicate word %q in default list", w)
		}
		seen[w] = true
	}
}

func TestCodeRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewCode()
		if err := ValidateCode(code); err != nil {
			t.Fatalf("minted code %q failed validation: %v", code, err)
		}
	}

	if err := ValidateCode("ABC"); err == nil {
		t.Error("short code passed validation")
	}
	if err := ValidateCode("ABCDE0"); err == nil {
		t.Error("code with excluded character passed validation")
	}
	if got := NormalizeCode(" abcdef "); got != "ABCDEF" {
		t.Errorf("NormalizeCode = %q", got)
	}
}

package catalog

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Beatles", "the beatles"},
		{"Beatles, The", "the beatles"},
		{"AC/DC", "acdc"},
		{"Guns N' Roses", "guns n roses"},
		{"Beyoncé", "beyonce"},
		{"  Sigur   Rós ", "sigur ros"},
		{"R.E.M.", "rem"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchExactAfterNormalization(t *testing.T) {
	known := []string{"The Beatles", "Pink Floyd"}
	got, ok := Match("Beatles, The", known, DefaultSimilarityThreshold)
	if !ok {
		t.Fatal("expected article-rotated variant to match existing artist")
	}
	if got != "The Beatles" {
		t.Errorf("matched %q, want %q", got, "The Beatles")
	}
}

func TestMatchRejectsNearMiss(t *testing.T) {
	known := []string{"The Beatles"}
	if got, ok := Match("The Beatless", known, DefaultSimilarityThreshold); ok {
		t.Fatalf("near-miss merged onto %q, want a distinct entity", got)
	}
}

func TestMatchFuzzyTypoInLongName(t *testing.T) {
	known := []string{"Red Hot Chili Peppers"}
	got, ok := Match("Red Hot Chilli Peppers", known, DefaultSimilarityThreshold)
	if !ok {
		t.Fatal("expected single-typo long name to match")
	}
	if got != "Red Hot Chili Peppers" {
		t.Errorf("matched %q, want %q", got, "Red Hot Chili Peppers")
	}
}

func TestMatchTieBreakIsDeterministic(t *testing.T) {
	// Both candidates normalize within threshold of the probe; the
	// lexicographically-first normalized form must win every time.
	known := []string{"Mogwai Fear Satan Band", "Mogwai Fear Satan Bend"}
	first, ok := Match("Mogwai Fear Satan Banda", known, 0.9)
	if !ok {
		t.Fatal("expected a fuzzy match")
	}
	for i := 0; i < 10; i++ {
		got, _ := Match("Mogwai Fear Satan Banda", known, 0.9)
		if got != first {
			t.Fatalf("tie-break not deterministic: %q then %q", first, got)
		}
	}
	if first != "Mogwai Fear Satan Band" {
		t.Errorf("tie-break picked %q, want lexicographically-first candidate", first)
	}
}

func TestMatcherResolve(t *testing.T) {
	m := NewMatcher(DefaultSimilarityThreshold)
	m.Add("The Beatles")

	if got, created := m.Resolve("Beatles, The"); created || got != "The Beatles" {
		t.Errorf("Resolve variant = (%q, created=%t), want existing The Beatles", got, created)
	}
	if got, created := m.Resolve("The Beatless"); !created || got != "The Beatless" {
		t.Errorf("Resolve near-miss = (%q, created=%t), want a new entity", got, created)
	}
	// Once registered, the near-miss is its own stable scope member.
	if got, created := m.Resolve("The Beatless"); created || got != "The Beatless" {
		t.Errorf("second Resolve = (%q, created=%t), want existing entity", got, created)
	}
}

package language

import (
	"reflect"
	"testing"
)

func TestNgramClassifier(t *testing.T) {
	classifier, err := NewNgramClassifier([]string{"en", "pl", "de"})
	if err != nil {
		t.Fatalf("Failed to create classifier: %v", err)
	}

	t.Run("Languages", func(t *testing.T) {
		langs := classifier.Languages()
		if len(langs) != 3 {
			t.Errorf("Languages() returned %d entries, want 3", len(langs))
		}
	})

	t.Run("EnglishText", func(t *testing.T) {
		candidates := classifier.Classify("Please help me understand how this invoice was calculated")
		if len(candidates) == 0 {
			t.Fatal("Expected candidates for English text")
		}
		if candidates[0].Language != "en" {
			t.Errorf("Top candidate = %q, want en", candidates[0].Language)
		}
		if candidates[0].Probability <= 0 || candidates[0].Probability > 1 {
			t.Errorf("Top probability out of range: %f", candidates[0].Probability)
		}
	})

	t.Run("PolishText", func(t *testing.T) {
		candidates := classifier.Classify("Proszę o pomoc w zrozumieniu tej faktury i jej obliczeń")
		if len(candidates) == 0 {
			t.Fatal("Expected candidates for Polish text")
		}
		if candidates[0].Language != "pl" {
			t.Errorf("Top candidate = %q, want pl", candidates[0].Language)
		}
	})

	t.Run("RankedDescending", func(t *testing.T) {
		candidates := classifier.Classify("Guten Tag, ich hätte gerne eine Rechnung für meine Bestellung")
		for i := 1; i < len(candidates); i++ {
			if candidates[i-1].Probability < candidates[i].Probability {
				t.Errorf("Candidates not ranked: %f before %f",
					candidates[i-1].Probability, candidates[i].Probability)
			}
		}
	})

	t.Run("NoLettersNoCandidates", func(t *testing.T) {
		for _, text := range []string{"", "12345", "!!! ??? ..."} {
			if candidates := classifier.Classify(text); candidates != nil {
				t.Errorf("Classify(%q) = %v, want nil", text, candidates)
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "The weather has been remarkably pleasant this entire week"
		first := classifier.Classify(text)
		second := classifier.Classify(text)
		if !reflect.DeepEqual(first, second) {
			t.Error("Classification is not deterministic for identical input")
		}
	})
}

func TestNewNgramClassifierErrors(t *testing.T) {
	t.Run("UnknownCode", func(t *testing.T) {
		if _, err := NewNgramClassifier([]string{"en", "zz"}); err == nil {
			t.Error("Expected error for unknown language code")
		}
	})

	t.Run("SingleLanguage", func(t *testing.T) {
		if _, err := NewNgramClassifier([]string{"en"}); err == nil {
			t.Error("Expected error for a single-language set")
		}
	})
}

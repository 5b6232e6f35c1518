package language

import (
	"testing"
)

func TestChecksumValidators(t *testing.T) {
	t.Run("PESEL", func(t *testing.T) {
		valid := []string{"92032100157", "44051401359"}
		for _, v := range valid {
			if !ValidPESEL(v) {
				t.Errorf("ValidPESEL(%q) = false, want true", v)
			}
		}

		invalid := []string{
			"92032100158", // wrong check digit
			"92932100157", // month 93 is out of range
			"92030000157", // day 0
			"9203210015",  // too short
			"920321001570", // too long
		}
		for _, v := range invalid {
			if ValidPESEL(v) {
				t.Errorf("ValidPESEL(%q) = true, want false", v)
			}
		}
	})

	t.Run("NIP", func(t *testing.T) {
		for _, v := range []string{"1234563218", "5260001246", "123-456-32-18"} {
			if !ValidNIP(v) {
				t.Errorf("ValidNIP(%q) = false, want true", v)
			}
		}
		for _, v := range []string{"1234563217", "123456321", "0000000000"} {
			if ValidNIP(v) {
				t.Errorf("ValidNIP(%q) = true, want false", v)
			}
		}
	})

	t.Run("REGON", func(t *testing.T) {
		if !ValidREGON("123456785") {
			t.Error("ValidREGON(123456785) = false, want true")
		}
		for _, v := range []string{"123456784", "12345678", "1234567850"} {
			if ValidREGON(v) {
				t.Errorf("ValidREGON(%q) = true, want false", v)
			}
		}
	})
}

func TestScanner(t *testing.T) {
	scanner := NewScanner(GetDefaultPatternRules(), GetDefaultKeywordRules())

	t.Run("ValidPESELYieldsHint", func(t *testing.T) {
		hints := scanner.Scan("Mój numer PESEL to 92032100157")
		if len(hints) == 0 {
			t.Fatal("Expected hints for text containing a valid PESEL")
		}
		if hints[0].Tag != "NATIONAL_ID:PESEL" {
			t.Errorf("First hint = %q, want NATIONAL_ID:PESEL", hints[0].Tag)
		}
		if hints[0].Language != "pl" {
			t.Errorf("Hint language = %q, want pl", hints[0].Language)
		}
	})

	t.Run("InvalidChecksumYieldsNoPatternHint", func(t *testing.T) {
		hints := scanner.Scan("numer 92032100158 prosze")
		for _, h := range hints {
			if h.Tag == "NATIONAL_ID:PESEL" {
				t.Error("PESEL hint emitted for a number that fails its checksum")
			}
		}
	})

	t.Run("KeywordIsCaseInsensitive", func(t *testing.T) {
		hints := scanner.Scan("Podaj swój PESEL")
		found := false
		for _, h := range hints {
			if h.Tag == "keyword:pesel" {
				found = true
			}
		}
		if !found {
			t.Error("Expected keyword hint for uppercase PESEL token")
		}
	})

	t.Run("KeywordMatchesWholeTokensOnly", func(t *testing.T) {
		hints := scanner.Scan("the peselx column")
		if len(hints) != 0 {
			t.Errorf("Expected no hints for embedded keyword, got %v", hints)
		}
	})

	t.Run("HintsOrderedByPriority", func(t *testing.T) {
		// Valid PESEL (priority 10) plus keyword "pesel" (priority 50).
		hints := scanner.Scan("pesel: 92032100157")
		if len(hints) < 2 {
			t.Fatalf("Expected at least 2 hints, got %d", len(hints))
		}
		for i := 1; i < len(hints); i++ {
			if hints[i-1].Priority > hints[i].Priority {
				t.Errorf("Hints out of order: %d before %d", hints[i-1].Priority, hints[i].Priority)
			}
		}
		if hints[0].Tag != "NATIONAL_ID:PESEL" {
			t.Errorf("Highest-priority hint = %q, want NATIONAL_ID:PESEL", hints[0].Tag)
		}
	})

	t.Run("RepeatedMatchesDeduplicated", func(t *testing.T) {
		hints := scanner.Scan("92032100157 oraz 44051401359")
		count := 0
		for _, h := range hints {
			if h.Tag == "NATIONAL_ID:PESEL" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("PESEL hint emitted %d times, want 1", count)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		if hints := scanner.Scan(""); hints != nil {
			t.Errorf("Scan(\"\") = %v, want nil", hints)
		}
	})

	t.Run("NINOHint", func(t *testing.T) {
		hints := scanner.Scan("My NI number is AB123456C")
		if len(hints) == 0 || hints[0].Tag != "NATIONAL_ID:NINO" {
			t.Fatalf("Expected NINO hint, got %v", hints)
		}
		if hints[0].Language != "en" {
			t.Errorf("NINO hint language = %q, want en", hints[0].Language)
		}
	})
}

func TestIsNumericOnly(t *testing.T) {
	numeric := []string{"12345", "4111 1111 1111 1111", "12-34.56,78", "+48 123 456 789"}
	for _, v := range numeric {
		if !isNumericOnly(v) {
			t.Errorf("isNumericOnly(%q) = false, want true", v)
		}
	}

	notNumeric := []string{"", "abc", "123a", "   ", "---"}
	for _, v := range notNumeric {
		if isNumericOnly(v) {
			t.Errorf("isNumericOnly(%q) = true, want false", v)
		}
	}
}

package language

import "regexp"

// GetDefaultPatternRules returns the built-in structured identifier rules.
// Priorities resolve overlapping digit-run matches: a validated PESEL beats
// a validated NIP beats a bare REGON when the same run satisfies several
// checksums.
func GetDefaultPatternRules() []PatternRule {
	return []PatternRule{
		{
			Name:     "NATIONAL_ID:PESEL",
			Category: "national_id",
			Language: "pl",
			Priority: 10,
			Pattern:  regexp.MustCompile(`\b\d{11}\b`),
			Validate: ValidPESEL,
		},
		{
			Name:     "TAX_ID:NIP",
			Category: "tax_id",
			Language: "pl",
			Priority: 20,
			Pattern:  regexp.MustCompile(`\b\d{3}[- ]?\d{3}[- ]?\d{2}[- ]?\d{2}\b`),
			Validate: ValidNIP,
		},
		{
			Name:     "BUSINESS_ID:REGON",
			Category: "business_id",
			Language: "pl",
			Priority: 30,
			Pattern:  regexp.MustCompile(`\b\d{9}\b`),
			Validate: ValidREGON,
		},
		{
			Name:     "NATIONAL_ID:NINO",
			Category: "national_id",
			Language: "en",
			Priority: 15,
			Pattern:  regexp.MustCompile(`\b[A-CEGHJ-PR-TW-Z]{2}\d{6}[A-D]\b`),
		},
		{
			Name:     "NATIONAL_ID:SSN",
			Category: "national_id",
			Language: "en",
			Priority: 25,
			Pattern:  regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		},
		{
			Name:     "BANK_ACCOUNT:IBAN_PL",
			Category: "bank_account",
			Language: "pl",
			Priority: 40,
			Pattern:  regexp.MustCompile(`\bPL\d{26}\b`),
		},
	}
}

// GetDefaultKeywordRules returns the built-in lexical cues. Keywords are
// matched as whole tokens, case-insensitively.
func GetDefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Keyword: "pesel", Language: "pl", Priority: 50},
		{Keyword: "regon", Language: "pl", Priority: 50},
		{Keyword: "ulica", Language: "pl", Priority: 60},
		{Keyword: "faktura", Language: "pl", Priority: 60},
		{Keyword: "nazwisko", Language: "pl", Priority: 60},
		{Keyword: "dowód", Language: "pl", Priority: 60},
	}
}

// ValidPESEL reports whether digits form a valid PESEL number, including
// the birth-date fields and the check digit.
func ValidPESEL(s string) bool {
	digits := onlyDigits(s)
	if len(digits) != 11 {
		return false
	}
	month := (digits[2]-'0')*10 + (digits[3] - '0')
	// Months are offset by century: 01-12 (1900s), 21-32 (2000s), 41-52,
	// 61-72, 81-92.
	m := month % 20
	if m < 1 || m > 12 {
		return false
	}
	day := (digits[4]-'0')*10 + (digits[5] - '0')
	if day < 1 || day > 31 {
		return false
	}
	weights := [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	check := (10 - sum%10) % 10
	return check == int(digits[10]-'0')
}

// ValidNIP reports whether digits form a valid NIP (Polish tax identifier).
func ValidNIP(s string) bool {
	digits := onlyDigits(s)
	if len(digits) != 10 {
		return false
	}
	weights := [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	check := sum % 11
	if check == 10 {
		return false
	}
	return check == int(digits[9]-'0')
}

// ValidREGON reports whether digits form a valid 9-digit REGON.
func ValidREGON(s string) bool {
	digits := onlyDigits(s)
	if len(digits) != 9 {
		return false
	}
	weights := [8]int{8, 9, 2, 3, 4, 5, 6, 7}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	check := sum % 11
	if check == 10 {
		check = 0
	}
	return check == int(digits[8]-'0')
}

func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

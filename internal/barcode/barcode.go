// Package barcode holds the pure code-cleanup functions shared by the scan
// pipeline: cleaning raw decoder output, symbology classification, EAN-13
// checksum verification and the equivalence heuristics used to decide whether
// two noisy reads came from the same physical barcode.
//
// Every function is total over string input and deterministic; none of them
// panic on malformed codes.
package barcode

import "strings"

// Symbology types reported by Classify.
const (
	TypeEAN8         = "EAN-8"
	TypeUPCA         = "UPC-A"
	TypeEAN13        = "EAN-13"
	TypeGTIN14       = "GTIN-14"
	TypePartialEAN13 = "partial-EAN-13"
	TypePartial      = "partial"
	TypeCustom       = "custom"
	TypeUnknown      = "unknown"
)

// retailPrefixes are GS1 company prefixes seen often enough on stocked parts
// that a >=6 digit read starting with one is treated as a partial EAN-13.
var retailPrefixes = []string{"69", "89", "00", "45", "49", "50", "73", "76"}

// Format describes a classified code.
type Format struct {
	Type          string
	Valid         bool
	ChecksumValid bool   // meaningful only for EAN-13
	Prefix        string // first 6 digits of a partial EAN-13
	PossibleFull  bool   // partial EAN-13 long enough to be nearly complete
}

// Clean trims whitespace and strips every character outside [A-Za-z0-9_-].
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ValidateEAN13 checks the mod-10 weighted check digit of a 13-digit code.
// Weights alternate 1/3 over the first 12 digits; the result must equal the
// 13th digit.
func ValidateEAN13(code string) bool {
	if len(code) != 13 || !isDigits(code) {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(code[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	check := (10 - sum%10) % 10
	return int(code[12]-'0') == check
}

// Classify infers the symbology of a code from its digit length.
// Non-digit characters are ignored for classification.
func Classify(code string) Format {
	cleaned := digitsOnly(code)
	length := len(cleaned)

	switch length {
	case 0:
		return Format{Type: TypeUnknown}
	case 8:
		return Format{Type: TypeEAN8, Valid: true}
	case 12:
		return Format{Type: TypeUPCA, Valid: true}
	case 13:
		return Format{Type: TypeEAN13, Valid: true, ChecksumValid: ValidateEAN13(cleaned)}
	case 14:
		return Format{Type: TypeGTIN14, Valid: true}
	}

	if length >= 6 {
		for _, p := range retailPrefixes {
			if strings.HasPrefix(cleaned, p) {
				return Format{
					Type:         TypePartialEAN13,
					Valid:        true,
					Prefix:       cleaned[:6],
					PossibleFull: length >= 12,
				}
			}
		}
	}

	if length >= 8 && length <= 14 {
		return Format{Type: TypePartial, Valid: true}
	}

	// Internal SKU that is not a standard symbology but may still be valid.
	return Format{Type: TypeCustom, Valid: len(Clean(code)) > 4}
}

// Normalize maps inconsistent reads of the same barcode onto one canonical
// value. Standard symbologies are kept verbatim; long non-standard numeric
// codes collapse to their trailing 8 digits, the portion handheld scanners
// read most reliably. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	cleaned := Clean(raw)
	if cleaned == "" || !isDigits(cleaned) {
		return cleaned
	}

	f := Classify(cleaned)
	switch f.Type {
	case TypeEAN8, TypeUPCA, TypeEAN13, TypeGTIN14, TypePartialEAN13:
		return cleaned
	case TypePartial:
		if len(cleaned) > 8 {
			return cleaned[len(cleaned)-8:]
		}
		return cleaned
	}

	if len(cleaned) > 8 {
		return cleaned[len(cleaned)-8:]
	}
	return cleaned
}

// Equivalent reports whether two reads likely came from the same barcode.
// After normalization: exact match, substring containment (partial scans),
// or a shared 6-digit manufacturer prefix / 6-digit suffix for numeric codes.
func Equivalent(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	if !isDigits(na) || !isDigits(nb) {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	const affix = 6
	if len(na) >= affix && len(nb) >= affix {
		if na[:affix] == nb[:affix] {
			return true
		}
		if na[len(na)-affix:] == nb[len(nb)-affix:] {
			return true
		}
	}
	return false
}

// MostFrequent returns the code with the highest occurrence count, provided
// it occurs at least min times. Ties keep the earliest code to reach the max.
func MostFrequent(codes []string, min int) (string, bool) {
	if len(codes) == 0 {
		return "", false
	}
	freq := make(map[string]int, len(codes))
	best, maxFreq := codes[0], 0
	for _, c := range codes {
		freq[c]++
		if freq[c] > maxFreq {
			maxFreq = freq[c]
			best = c
		}
	}
	if maxFreq < min {
		return "", false
	}
	return best, true
}

// MatchReference reports whether a read matches a pre-registered reference
// code: exact match, the read being a fragment of the reference, or the read
// containing any 6-digit run of the reference (partial-scan recovery).
func MatchReference(code, ref string) bool {
	if code == "" || ref == "" {
		return false
	}
	if code == ref || strings.Contains(ref, code) {
		return true
	}
	const run = 6
	for i := 0; i+run <= len(ref); i++ {
		if strings.Contains(code, ref[i:i+run]) {
			return true
		}
	}
	return false
}

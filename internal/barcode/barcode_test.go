package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  4006381333931  ", "4006381333931"},
		{"strips punctuation", "40.06-38#13!33931", "4006-381333931"},
		{"keeps underscores and dashes", "SKU_ab-12", "SKU_ab-12"},
		{"empty", "", ""},
		{"only junk", " \t!@#$ ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestValidateEAN13(t *testing.T) {
	assert.True(t, ValidateEAN13("4006381333931"))
	// same digits, last one altered
	assert.False(t, ValidateEAN13("4006381333932"))
	assert.False(t, ValidateEAN13("400638133393"))
	assert.False(t, ValidateEAN13("40063813339311"))
	assert.False(t, ValidateEAN13("40063813339ab"))
	assert.False(t, ValidateEAN13(""))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code     string
		wantType string
	}{
		{"12345678", TypeEAN8},
		{"123456789012", TypeUPCA},
		{"4006381333931", TypeEAN13},
		{"12345678901234", TypeGTIN14},
		{"6954851", TypePartialEAN13},
		{"1234567890", TypePartial},
		{"12345", TypeCustom},
		{"", TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantType, Classify(tt.code).Type)
		})
	}

	f := Classify("4006381333931")
	require.True(t, f.Valid)
	assert.True(t, f.ChecksumValid)
	assert.False(t, Classify("4006381333932").ChecksumValid)

	p := Classify("6954851221")
	assert.Equal(t, "695485", p.Prefix)
	assert.False(t, p.PossibleFull)
	assert.True(t, Classify("695485122157").PossibleFull)
}

func TestClassifyNeverPanicsOnJunk(t *testing.T) {
	for _, s := range []string{"", " ", "!!!", "abc", "٠١٢٣", string([]byte{0xff, 0xfe})} {
		assert.NotPanics(t, func() { Classify(s) })
		assert.NotPanics(t, func() { _ = Normalize(s) })
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ean13 kept", "4006381333931", "4006381333931"},
		{"ean8 kept", "12345678", "12345678"},
		{"upca kept", "123456789012", "123456789012"},
		{"gtin14 kept", "12345678901234", "12345678901234"},
		{"partial ean13 kept", "6954851221", "6954851221"},
		{"long partial collapses to last 8", "1234567890", "34567890"},
		{"short numeric kept", "12345", "12345"},
		{"alnum sku cleaned only", " RAM-DDR4_16G ", "RAM-DDR4_16G"},
		{"noise stripped", " 40063 81333931\n", "4006381333931"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"4006381333931", "12345678", "123456789012", "12345678901234",
		"6954851221", "1234567890", "12345", "RAM-DDR4_16G",
		" 40063 81333931 ", "99887766554433221100", "", "###",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestEquivalent(t *testing.T) {
	assert.True(t, Equivalent("4006381333931", "4006381333931"))
	// one read is a fragment of the other
	assert.True(t, Equivalent("4006381333931", "400638133"))
	// shared 6-digit manufacturer prefix
	assert.True(t, Equivalent("6954851221574", "6954851299999"))
	// shared 6-digit suffix
	assert.True(t, Equivalent("991221574", "881221574"))
	assert.False(t, Equivalent("4006381333931", "1112223334445"))
	assert.False(t, Equivalent("", "4006381333931"))
	assert.False(t, Equivalent("abc", "abd"))
}

func TestMostFrequent(t *testing.T) {
	code, ok := MostFrequent([]string{"12345", "99999", "12345"}, 2)
	require.True(t, ok)
	assert.Equal(t, "12345", code)

	_, ok = MostFrequent([]string{"12345", "99999"}, 2)
	assert.False(t, ok)

	_, ok = MostFrequent(nil, 2)
	assert.False(t, ok)

	code, ok = MostFrequent([]string{"1"}, 1)
	require.True(t, ok)
	assert.Equal(t, "1", code)
}

func TestMatchReference(t *testing.T) {
	ref := "6954851221574"
	assert.True(t, MatchReference(ref, ref))
	// read sharing a 6-digit run with the reference
	assert.True(t, MatchReference("49512215", ref))
	// read contains a 6-digit run of the reference
	assert.True(t, MatchReference("00695485122", ref))
	assert.False(t, MatchReference("4006381333931", ref))
	assert.False(t, MatchReference("", ref))
	assert.False(t, MatchReference("695485", ""))
}

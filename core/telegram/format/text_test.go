package format

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateShortText(t *testing.T) {
	for _, in := range []string{
		strings.Repeat("a", MaxMessageLength),
		strings.Repeat("🌍", MaxMessageLength/2),
	} {
		if got := Truncate(in); got != in {
			t.Fatalf("text at the limit must be kept as is (%d units)", Length(in))
		}
	}
}

func TestTruncateLongText(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"ascii", strings.Repeat("a", 5000)},
		{"cyrillic", strings.Repeat("я", MaxMessageLength+10)},
		{"emoji", strings.Repeat("🌍", MaxMessageLength/2+1)},
		{"mixed", strings.Repeat("a🌍", 3000)},
	}
	for _, tc := range cases {
		got := Truncate(tc.in)
		if n := Length(got); n > MaxMessageLength {
			t.Fatalf("%s: %d units after Truncate, limit %d", tc.name, n, MaxMessageLength)
		}
		if !strings.HasSuffix(got, TruncateSuffix) {
			t.Fatalf("%s: missing suffix", tc.name)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("%s: result is not valid utf-8", tc.name)
		}
		body := strings.TrimSuffix(got, TruncateSuffix)
		if !strings.HasPrefix(tc.in, body) {
			t.Fatalf("%s: kept text is not a prefix of the input", tc.name)
		}
	}
}

func TestTruncateUsesWholeBudget(t *testing.T) {
	got := Truncate(strings.Repeat("a", 5000))
	if n := Length(got); n != MaxMessageLength {
		t.Fatalf("length = %d, want %d", n, MaxMessageLength)
	}
}

func TestLengthCountsUTF16Units(t *testing.T) {
	if n := Length("aя🌍"); n != 4 {
		t.Fatalf("Length = %d, want 4", n)
	}
}

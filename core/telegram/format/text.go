package format

import "unicode/utf16"

// MaxMessageLength is the Telegram limit for a single text message,
// measured in UTF-16 code units.
const MaxMessageLength = 4096

// TruncateSuffix marks a message that was cut to fit MaxMessageLength.
const TruncateSuffix = "\n[...text cut]"

// Length returns the length of text as Telegram counts it.
func Length(text string) int {
	n := 0
	for _, r := range text {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// Truncate shortens text longer than MaxMessageLength so that the result,
// TruncateSuffix included, still fits. Runes are never split.
func Truncate(text string) string {
	if Length(text) <= MaxMessageLength {
		return text
	}
	budget := MaxMessageLength - Length(TruncateSuffix)
	n := 0
	for i, r := range text {
		if n+runeUnits(r) > budget {
			return text[:i] + TruncateSuffix
		}
		n += runeUnits(r)
	}
	return text
}

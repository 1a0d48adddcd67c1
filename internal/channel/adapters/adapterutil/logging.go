// Package adapterutil provides shared helpers for chat adapters.
package adapterutil

import "strings"

// SummarizeText returns a log preview of text, limited to 120 bytes.
func SummarizeText(text string) string {
	return Truncate(strings.TrimSpace(text), 120, "...")
}

// Truncate cuts text to at most limit bytes including suffix, never splitting a
// multi-byte rune.
func Truncate(text string, limit int, suffix string) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - len(suffix)
	if cut <= 0 {
		return suffix[:limit]
	}
	for cut > 0 && !runeStart(text[cut]) {
		cut--
	}
	return text[:cut] + suffix
}

func runeStart(b byte) bool { return b&0xC0 != 0x80 }

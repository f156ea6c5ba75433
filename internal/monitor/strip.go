package monitor

import "strings"

// styleMarker starts a two-character Minecraft formatting escape.
const styleMarker = '§' // §

// styleCodes are the code characters that may follow the marker.
const styleCodes = "0123456789abcdefklmnorABCDEFKLMNOR"

// StripName reduces a raw name fragment to a canonical player name:
// formatting escapes are removed, bytes outside printable ASCII are
// dropped, and a trailing run of non-identifier characters is trimmed.
// The result may be empty; an empty name means "no player" and must
// never be recorded.
func StripName(raw string) string {
	runes := []rune(raw)
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == styleMarker {
			// Swallow the marker and its code character, if any.
			if i+1 < len(runes) && strings.ContainsRune(styleCodes, runes[i+1]) {
				i++
			}
			continue
		}
		if r < 0x20 || r > 0x7e {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimRightFunc(b.String(), func(r rune) bool {
		return !isNameRune(r)
	})
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}

package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentifier canonicalizes an identifier before it is stored or compared:
// NFC composition, invisible format characters (zero-width spaces, BOMs) removed,
// surrounding whitespace trimmed. Case is preserved.
func NormalizeIdentifier(id string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))
	result, _, err := transform.String(t, id)
	if err != nil {
		result = id
	}
	return strings.TrimSpace(result)
}

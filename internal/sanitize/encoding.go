// Package sanitize repairs mixed UTF-8/Latin-1 query-string encodings and
// extracts structured lecturer identities from raw harvested cell text.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const replacementChar = '�'

// umlautPairs is the double-UTF-8 artifact substitution table: each of
// these sequences is what a correctly-encoded umlaut looks like after it
// has been mis-decoded as Latin-1 and re-encoded as UTF-8.
var umlautPairs = []struct{ from, to string }{
	{"Ã„", "Ä"},
	{"Ã–", "Ö"},
	{"Ãœ", "Ü"},
	{"Ã¤", "ä"},
	{"Ã¶", "ö"},
	{"Ã¼", "ü"},
	{"ÃŸ", "ß"},
}

var umlautRunes = "äöüÄÖÜß"

func repairUmlauts(s string) string {
	for _, p := range umlautPairs {
		s = strings.ReplaceAll(s, p.from, p.to)
	}
	return s
}

func countUmlauts(s string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(umlautRunes, r) {
			n++
		}
	}
	return n
}

func hasReplacement(s string) bool {
	return strings.ContainsRune(s, replacementChar)
}

// FixEncoding repairs a query-string value that may be UTF-8 or legacy
// ISO-8859-1 encoded. It tries the UTF-8 interpretation first, then falls
// back to a Latin-1 reinterpretation if that one yields at least as many
// umlauts and no replacement characters.
func FixEncoding(raw string) string {
	utf8Attempt := repairUmlauts(raw)
	if !hasReplacement(utf8Attempt) {
		return utf8Attempt
	}

	latin1Attempt, ok := decodeLatin1(raw)
	if !ok {
		return utf8Attempt
	}
	latin1Attempt = repairUmlauts(latin1Attempt)

	if !hasReplacement(latin1Attempt) && countUmlauts(latin1Attempt) >= countUmlauts(utf8Attempt) {
		return latin1Attempt
	}
	return utf8Attempt
}

// decodeLatin1 reinterprets the bytes of s as ISO-8859-1 and decodes to
// UTF-8. It reports false if s is not valid UTF-8 going in (we only ever
// reinterpret strings the runtime already holds as UTF-8 byte sequences).
func decodeLatin1(s string) (string, bool) {
	if !utf8.ValidString(s) {
		return "", false
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return "", false
	}
	return decoded, true
}

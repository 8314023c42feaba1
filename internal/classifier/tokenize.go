package classifier

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Tokenize lower-cases text, strips punctuation and diacritics and splits on
// whitespace, so "Café" and "cafe" produce the same token.
func Tokenize(text string) []string {
	// transform chains keep state, so build one per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, ""))
	folded, _, err := transform.String(fold, bare)
	if err != nil {
		slog.Warn("unicode normalization error", slog.Any("error", err))
		folded = bare
	}
	return strings.Fields(folded)
}

// Package textnorm turns raw email body text into compact, model-safe plain text.
package textnorm

import (
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	// Trailing punctuation is left in place: "(https://x.io/a)," keeps "(),".
	urlRe          = regexp.MustCompile(`(?i)(?:\b(?:https?|ftp)://|\bwww\.)\S*[^\s)\]>.,;:!?'"]`)
	emailRe        = regexp.MustCompile(`(?i)(?:\bmailto:)?[a-z0-9._%+\-]+@[a-z0-9\-]+(?:\.[a-z0-9\-]+)+`)
)

// Runes that survive NFKD decomposition but have a common ASCII spelling.
var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-",
	"•", "*", "·", "*",
	"€", "EUR", "£", "GBP",
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "đ", "d", "Đ", "D", "ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
)

// Normalize decodes quoted-printable noise, folds text to ASCII, drops links,
// URLs and email addresses and collapses whitespace. It never fails: any
// decoding problem leaves the input as it was for the following steps.
func Normalize(raw string) string {
	text := decodeQuotedPrintable(raw)
	text = foldASCII(text)

	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")

	return strings.Join(strings.Fields(text), " ")
}

func decodeQuotedPrintable(s string) string {
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
	if err != nil {
		return s
	}

	return strings.ToValidUTF8(string(decoded), "�")
}

func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = punctuation.Replace(folded)

	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

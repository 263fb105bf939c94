package mailbox

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message/charset"
)

// EmptyBody is returned by Text when a message has no readable body.
const EmptyBody = "(empty body)"

type htmlConverter interface {
	HTML2Text(raw []byte) string
}

// ExtractBody returns the first text/plain and the first text/html body,
// decoded with their declared charsets. Attachments and parts without a
// usable payload are skipped. Either result may be nil.
func ExtractBody(parts []Part) (plain, html *string) {
	for _, p := range parts {
		if p.Encoded || len(p.Data) == 0 || p.Disposition == "attachment" {
			continue
		}

		switch p.MimeType {
		case "text/plain":
			if plain == nil {
				s := decodeCharset(p.Data, p.Charset)
				plain = &s
			}
		case "text/html":
			if html == nil {
				s := decodeCharset(p.Data, p.Charset)
				html = &s
			}
		}
	}

	return plain, html
}

// Text picks a single body string: plain text when it is not blank,
// otherwise the HTML body converted to text, otherwise EmptyBody.
func Text(parts []Part, conv htmlConverter) string {
	plain, html := ExtractBody(parts)

	if plain != nil {
		if s := strings.TrimSpace(*plain); s != "" {
			return s
		}
	}

	if html != nil {
		if s := strings.TrimSpace(conv.HTML2Text([]byte(*html))); s != "" {
			return s
		}
	}

	return EmptyBody
}

func decodeCharset(data []byte, label string) string {
	label = strings.ToLower(strings.TrimSpace(label))

	switch label {
	case "", "utf-8", "utf8", "us-ascii":
		return strings.ToValidUTF8(string(data), "�")
	}

	r, err := charset.Reader(label, bytes.NewReader(data))
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}

	return strings.ToValidUTF8(string(decoded), "�")
}

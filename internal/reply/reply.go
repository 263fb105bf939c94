// Package reply composes outgoing plain-text replies.
package reply

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

const subjectPrefix = "Re: "

// Subject prefixes s with "Re: " unless it already starts with "re:" in any case.
func Subject(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "re:") {
		return s
	}
	return subjectPrefix + s
}

// Draft is a reply ready to be encoded.
type Draft struct {
	To         string
	Subject    string
	Body       string
	InReplyTo  string
	References string
	Date       time.Time
}

// Compose encodes d as an RFC 822 text/plain message. To is parsed as an
// address list and written verbatim when it does not parse.
func Compose(d Draft) ([]byte, error) {
	var h mail.Header

	date := d.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)

	if addrs, err := mail.ParseAddressList(d.To); err == nil && len(addrs) > 0 {
		h.SetAddressList("To", addrs)
	} else {
		h.Set("To", d.To)
	}

	h.SetSubject(d.Subject)

	if d.InReplyTo != "" {
		h.Set("In-Reply-To", d.InReplyTo)
		h.Set("References", strings.TrimSpace(d.References+" "+d.InReplyTo))
	}

	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail.CreateSingleInlineWriter failed: %w", err)
	}

	if _, err := io.WriteString(w, d.Body); err != nil {
		return nil, fmt.Errorf("w.Write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("w.Close failed: %w", err)
	}

	return buf.Bytes(), nil
}

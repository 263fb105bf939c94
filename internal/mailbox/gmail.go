package mailbox

import (
	"encoding/base64"
	"mime"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// FromGmail converts a Gmail API message into a Message. The payload tree
// is flattened depth-first so parts keep their document order.
func FromGmail(msg *gmail.Message) Message {
	m := Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Header:   Header{},
	}
	if msg.Payload == nil {
		return m
	}

	for _, h := range msg.Payload.Headers {
		m.Header.Add(h.Name, h.Value)
	}
	m.Parts = flattenGmailPart(msg.Payload, nil)

	return m
}

func flattenGmailPart(p *gmail.MessagePart, parts []Part) []Part {
	if len(p.Parts) > 0 {
		for _, child := range p.Parts {
			parts = flattenGmailPart(child, parts)
		}
		return parts
	}

	if p.Body == nil || p.Body.Data == "" {
		return parts
	}

	part := Part{
		MimeType: strings.ToLower(p.MimeType),
		Filename: p.Filename,
	}

	if _, params, err := mime.ParseMediaType(gmailPartHeader(p, "Content-Type")); err == nil {
		part.Charset = params["charset"]
	}
	if disp, _, err := mime.ParseMediaType(gmailPartHeader(p, "Content-Disposition")); err == nil {
		part.Disposition = disp
	}

	data, err := decodeBase64URL(p.Body.Data)
	if err != nil {
		part.Data = []byte(p.Body.Data)
		part.Encoded = true
	} else {
		part.Data = data
	}

	return append(parts, part)
}

func gmailPartHeader(p *gmail.MessagePart, name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func decodeBase64URL(data string) ([]byte, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}

	decoded, err = base64.RawURLEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}

	return base64.StdEncoding.DecodeString(data)
}

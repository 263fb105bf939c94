package mailbox

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
)

// FromRFC822 parses a raw RFC 822 message. Parts with an unknown charset or
// transfer encoding are kept with their undecoded bytes.
func FromRFC822(r io.Reader) (Message, error) {
	e, err := message.Read(r)
	if err != nil && !recoverable(err) {
		return Message{}, fmt.Errorf("message.Read failed: %w", err)
	}

	m := Message{Header: Header{}}

	fields := e.Header.Fields()
	for fields.Next() {
		value, textErr := fields.Text()
		if textErr != nil {
			value = fields.Value()
		}
		m.Header.Add(fields.Key(), value)
	}

	m.Parts, err = walkEntity(e, err, nil)
	if err != nil {
		return Message{}, err
	}

	return m, nil
}

func walkEntity(e *message.Entity, entityErr error, parts []Part) ([]Part, error) {
	if mr := e.MultipartReader(); mr != nil {
		for {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return parts, nil
			}
			if err != nil && !recoverable(err) {
				return parts, fmt.Errorf("mr.NextPart failed: %w", err)
			}

			parts, err = walkEntity(child, err, parts)
			if err != nil {
				return parts, err
			}
		}
	}

	mediaType, params, _ := e.Header.ContentType()
	disp, dispParams, _ := e.Header.ContentDisposition()

	part := Part{
		MimeType:    strings.ToLower(mediaType),
		Charset:     params["charset"],
		Disposition: strings.ToLower(disp),
		Filename:    dispParams["filename"],
	}

	data, err := io.ReadAll(e.Body)
	if err != nil {
		part.Encoded = true
	}
	part.Data = data

	// go-message already converted known charsets to UTF-8.
	if entityErr == nil && strings.HasPrefix(part.MimeType, "text/") && part.Charset != "" {
		part.Charset = "utf-8"
	}

	return append(parts, part), nil
}

func recoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

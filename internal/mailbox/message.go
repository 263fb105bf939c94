// Package mailbox holds the provider-neutral view of a mail message: its
// headers and a flat, document-ordered list of body parts, plus the walker
// that picks the readable body out of those parts.
package mailbox

import "strings"

// Header is a case-insensitive header mapping. The first value of a
// repeated header wins.
type Header map[string]string

// Add stores value under name unless the header is already set.
func (h Header) Add(name, value string) {
	key := strings.ToLower(name)
	if _, ok := h[key]; ok {
		return
	}
	h[key] = value
}

// Get returns the header value for name, or "" when absent.
func (h Header) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Part is a single leaf body part.
type Part struct {
	MimeType    string
	Charset     string
	Disposition string
	Filename    string
	Data        []byte
	// Encoded is set when the payload could not be transfer-decoded; Data
	// then holds the original encoded text.
	Encoded bool
}

// Message is one message of a thread as seen by the assembler and resolver.
type Message struct {
	ID       string
	ThreadID string
	Header   Header
	Parts    []Part
}

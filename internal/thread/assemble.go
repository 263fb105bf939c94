package thread

import (
	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-reply-mcp/internal/textnorm"
)

const unknownSender = "unknown"

// Message is one normalized message of a thread.
type Message struct {
	Index    int    `json:"index" jsonschema:"1-based position among the returned messages"`
	Sender   string `json:"sender" jsonschema:"From header of the message"`
	Role     Role   `json:"role" jsonschema:"self for the mailbox owner, external otherwise"`
	Body     string `json:"body" jsonschema:"normalized plain text body"`
	IsLatest bool   `json:"is_latest" jsonschema:"true for the most recent message of the thread"`
}

type htmlConverter interface {
	HTML2Text(raw []byte) string
}

// Assembler builds thread context from raw messages.
type Assembler struct {
	conv     htmlConverter
	classify Classifier
}

// NewAssembler creates an Assembler. A nil classifier means DefaultClassifier.
func NewAssembler(conv htmlConverter, classify Classifier) *Assembler {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &Assembler{conv: conv, classify: classify}
}

// Assemble normalizes msgs, which must be in thread order, oldest first.
// Messages whose normalized body is empty are dropped without using an
// index. Only the message at the last raw position is marked latest, so if
// that one is dropped no message is.
func (a *Assembler) Assemble(msgs []mailbox.Message) []Message {
	result := make([]Message, 0, len(msgs))

	for p, msg := range msgs {
		body := textnorm.Normalize(mailbox.Text(msg.Parts, a.conv))
		if body == "" {
			continue
		}

		from := msg.Header.Get("From")
		to := msg.Header.Get("To")

		sender := from
		if sender == "" {
			sender = unknownSender
		}

		result = append(result, Message{
			Index:    len(result) + 1,
			Sender:   sender,
			Role:     a.classify(from, to),
			Body:     body,
			IsLatest: p == len(msgs)-1,
		})
	}

	return result
}

package thread

import (
	"errors"

	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
)

var (
	// ErrEmptyThread indicates the thread has no messages.
	ErrEmptyThread = errors.New("empty thread")
	// ErrNoHeaders indicates none of the thread messages carried headers.
	ErrNoHeaders = errors.New("no headers found in thread")
)

// ReplyTarget is where a reply goes and what it threads onto.
type ReplyTarget struct {
	ToAddress  string
	Subject    string
	MessageID  string
	References string
}

// ResolveReplyTarget scans msgs from newest to oldest and targets the first
// external message. A thread with only the owner's messages falls back to
// the newest one, so the reply goes to the owner. Messages without headers
// are skipped. A nil classifier means DefaultClassifier.
func ResolveReplyTarget(msgs []mailbox.Message, classify Classifier) (ReplyTarget, error) {
	if len(msgs) == 0 {
		return ReplyTarget{}, ErrEmptyThread
	}
	if classify == nil {
		classify = DefaultClassifier
	}

	var latest mailbox.Header

	for i := len(msgs) - 1; i >= 0; i-- {
		h := msgs[i].Header
		if len(h) == 0 {
			continue
		}
		if latest == nil {
			latest = h
		}

		if classify(h.Get("From"), h.Get("To")) == RoleExternal {
			return targetFrom(h), nil
		}
	}

	if latest == nil {
		return ReplyTarget{}, ErrNoHeaders
	}

	return targetFrom(latest), nil
}

func targetFrom(h mailbox.Header) ReplyTarget {
	return ReplyTarget{
		ToAddress:  h.Get("From"),
		Subject:    h.Get("Subject"),
		MessageID:  h.Get("Message-ID"),
		References: h.Get("References"),
	}
}

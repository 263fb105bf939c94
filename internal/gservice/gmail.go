// Package gservice talks to the Gmail API on behalf of the authorized user.
package gservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-reply-mcp/internal/auth"
)

const gmailUserID = "me"

// Thread formats accepted by GetThread.
const (
	FormatFull     = "full"
	FormatMetadata = "metadata"
	FormatMinimal  = "minimal"
)

var threadMetadataHeaders = []string{"From", "To", "Subject", "Message-ID", "References"}

func NewGmail(tok *auth.Token, logger *slog.Logger) *GMail {
	return &GMail{
		tok:    tok,
		logger: logger,
	}
}

type GMail struct {
	tok    *auth.Token
	logger *slog.Logger
}

func (m *GMail) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Users.Messages.List(gmailUserID).
		Q(Q).
		PageToken(pageToken).
		MaxResults(maxResults).
		Context(ctx)

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	m.logger.Debug("listed messages", "query", Q, "count", len(result.Messages))

	return result, nil
}

func (m *GMail) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).
		Format("METADATA").
		MetadataHeaders("From", "To", "Subject", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

// GetThread fetches a thread in one of FormatFull, FormatMetadata or
// FormatMinimal. Messages come back oldest first.
func (m *GMail) GetThread(ctx context.Context, threadID, format string) (*gmail.Thread, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Users.Threads.Get(gmailUserID, threadID).
		Format(strings.ToUpper(format)).
		Context(ctx)
	if format == FormatMetadata {
		call = call.MetadataHeaders(threadMetadataHeaders...)
	}

	t, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("threads.Get failed: %w", err)
	}

	m.logger.Debug("fetched thread", "thread_id", threadID, "format", format, "messages", len(t.Messages))

	return t, nil
}

// GetRawMessage returns the message as RFC 822 bytes.
func (m *GMail) GetRawMessage(ctx context.Context, msgID string) ([]byte, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).
		Format("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(msg.Raw)
		if err != nil {
			return nil, fmt.Errorf("base64.DecodeString failed: %w", err)
		}
	}

	return raw, nil
}

// SendMessage sends an RFC 822 message, attaching it to threadID when set.
func (m *GMail) SendMessage(ctx context.Context, raw []byte, threadID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: threadID,
	}

	sent, err := svc.Users.Messages.Send(gmailUserID, msg).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Send failed: %w", err)
	}

	m.logger.Info("message sent", "id", sent.Id, "thread_id", sent.ThreadId)

	return sent, nil
}

func (m *GMail) newSvc(ctx context.Context) (*gmail.Service, error) {
	src, err := m.tok.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("tok.TokenSource failed: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, src)))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}

package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/gservice"
	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
	"github.com/hal9000y/gmail-reply-mcp/internal/thread"
)

const replySent = "Reply sent successfully"

var errMissingReplyText = errors.New("replyText is required")

type SendReplyRequest struct {
	ThreadID  string `json:"threadId" jsonschema:"Gmail thread ID being replied to"`
	ReplyText string `json:"replyText" jsonschema:"final reply body text to send"`
}

type sendReplySvc interface {
	GetThread(ctx context.Context, threadID, format string) (*gmail.Thread, error)
	SendMessage(ctx context.Context, raw []byte, threadID string) (*gmail.Message, error)
}

func NewSendReply(svc sendReplySvc, opts Options) *SendReply {
	return &SendReply{
		svc:  svc,
		opts: opts.withDefaults(),
	}
}

type SendReply struct {
	svc  sendReplySvc
	opts Options
}

// SendReply resolves who the thread should be answered to and sends replyText there.
func (t *SendReply) SendReply(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SendReplyRequest,
) (*mcp.CallToolResult, any, error) {
	if input.ThreadID == "" {
		return nil, nil, errMissingThreadID
	}
	if input.ReplyText == "" {
		return nil, nil, errMissingReplyText
	}

	th, err := t.svc.GetThread(ctx, input.ThreadID, gservice.FormatMetadata)
	if err != nil {
		return nil, nil, fmt.Errorf("svc.GetThread failed: %w", err)
	}

	msgs := make([]mailbox.Message, 0, len(th.Messages))
	for _, m := range th.Messages {
		msgs = append(msgs, mailbox.FromGmail(m))
	}

	target, err := thread.ResolveReplyTarget(msgs, t.opts.Classifier)
	if err != nil {
		return nil, nil, fmt.Errorf("thread.ResolveReplyTarget failed: %w", err)
	}

	raw, err := reply.Compose(reply.Draft{
		To:         target.ToAddress,
		Subject:    reply.Subject(target.Subject),
		Body:       input.ReplyText,
		InReplyTo:  target.MessageID,
		References: target.References,
		Date:       t.opts.Now(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("reply.Compose failed: %w", err)
	}

	if _, err := t.svc.SendMessage(ctx, raw, input.ThreadID); err != nil {
		return nil, nil, fmt.Errorf("svc.SendMessage failed: %w", err)
	}

	t.opts.Logger.Info("reply sent", "thread_id", input.ThreadID)

	return textResult(replySent), nil, nil
}

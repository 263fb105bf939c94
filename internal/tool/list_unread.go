package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
)

const (
	missingSender  = "(missing sender)"
	missingSubject = "(missing subject)"
)

// ListUnreadRequest takes no arguments.
type ListUnreadRequest struct{}

type listUnreadSvc interface {
	ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
}

func NewListUnread(svc listUnreadSvc, opts Options) *ListUnread {
	return &ListUnread{
		svc:  svc,
		opts: opts.withDefaults(),
	}
}

type ListUnread struct {
	svc  listUnreadSvc
	opts Options
}

// ListUnread lists unread primary inbox messages, one line per thread.
func (t *ListUnread) ListUnread(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListUnreadRequest,
) (*mcp.CallToolResult, any, error) {
	result, err := t.svc.ListMessages(ctx, t.query(), "", t.opts.MaxResults)
	if err != nil {
		return nil, nil, fmt.Errorf("svc.ListMessages failed: %w", err)
	}

	if len(result.Messages) == 0 {
		return textResult(t.noUnread()), nil, nil
	}

	lines := make([]string, 0, len(result.Messages))
	seen := make(map[string]struct{}, len(result.Messages))
	skipped := 0

	for _, m := range result.Messages {
		msg, err := t.svc.GetMessageMetadata(ctx, m.Id)
		if err != nil {
			t.opts.Logger.Warn("skipping unread message", "id", m.Id, "error", err)
			skipped++
			continue
		}

		if msg.ThreadId == "" {
			continue
		}
		if _, ok := seen[msg.ThreadId]; ok {
			continue
		}
		seen[msg.ThreadId] = struct{}{}

		lines = append(lines, summaryLine(msg))
	}

	t.opts.Metrics.AddSkipped(skipped)
	t.opts.Logger.Info("listed unread messages", "listed", len(result.Messages), "returned", len(lines), "skipped", skipped)

	if len(lines) == 0 && skipped == 0 {
		return textResult(t.noUnread()), nil, nil
	}

	text := strings.Join(lines, "\n")
	if skipped > 0 {
		text += fmt.Sprintf("\n\n(%d emails skipped due to errors)", skipped)
	}

	return textResult(strings.TrimLeft(text, "\n")), nil, nil
}

func (t *ListUnread) noUnread() string {
	return fmt.Sprintf("No unread emails in the last %d days", t.opts.LookbackDays)
}

func (t *ListUnread) query() string {
	since := t.opts.Now().UTC().AddDate(0, 0, -t.opts.LookbackDays)
	return "is:unread in:inbox category:primary after:" + since.Format("2006/01/02")
}

func summaryLine(msg *gmail.Message) string {
	h := mailbox.FromGmail(msg).Header

	from := h.Get("From")
	if from == "" {
		from = missingSender
	}
	subject := h.Get("Subject")
	if subject == "" {
		subject = missingSubject
	}

	return fmt.Sprintf("id=%s | thread_id=%s | from=%s | subject=%s", msg.Id, msg.ThreadId, from, subject)
}

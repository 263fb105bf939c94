package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/gservice"
	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-reply-mcp/internal/thread"
)

// DraftInstructions tells the caller how to use the returned thread.
const DraftInstructions = "You are drafting an email reply.\n" +
	"Use ONLY the thread messages provided below.\n" +
	"Reply as the user (role == 'self').\n" +
	"Respond ONLY to the latest external message.\n" +
	"Do NOT quote or restate previous emails.\n" +
	"Write a clear, concise, professional reply.\n"

var errMissingThreadID = errors.New("threadId is required")

type DraftReplyRequest struct {
	ThreadID string `json:"threadId" jsonschema:"Gmail thread ID to reply to"`
}

// DraftReplyContext is the cleaned thread handed to the model.
type DraftReplyContext struct {
	Instructions string           `json:"instructions" jsonschema:"how the reply should be written"`
	ThreadID     string           `json:"threadId" jsonschema:"Gmail thread ID"`
	Messages     []thread.Message `json:"messages" jsonschema:"thread messages, oldest first"`
}

type draftReplySvc interface {
	GetThread(ctx context.Context, threadID, format string) (*gmail.Thread, error)
	GetRawMessage(ctx context.Context, msgID string) ([]byte, error)
}

func NewDraftReply(svc draftReplySvc, conv htmlConverter, opts Options) *DraftReply {
	opts = opts.withDefaults()
	return &DraftReply{
		svc:       svc,
		opts:      opts,
		assembler: thread.NewAssembler(conv, opts.Classifier),
	}
}

type DraftReply struct {
	svc       draftReplySvc
	opts      Options
	assembler *thread.Assembler
}

// DraftReplyContext fetches a thread and returns it as normalized reply context.
func (t *DraftReply) DraftReplyContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DraftReplyRequest,
) (*mcp.CallToolResult, DraftReplyContext, error) {
	if input.ThreadID == "" {
		return nil, DraftReplyContext{}, errMissingThreadID
	}

	raw, err := t.fetch(ctx, input.ThreadID)
	if err != nil {
		return nil, DraftReplyContext{}, err
	}

	messages := t.assembler.Assemble(raw)

	t.opts.Metrics.AddDropped(len(raw) - len(messages))
	t.opts.Logger.Info("assembled thread", "thread_id", input.ThreadID, "raw", len(raw), "kept", len(messages))

	return nil, DraftReplyContext{
		Instructions: DraftInstructions,
		ThreadID:     input.ThreadID,
		Messages:     messages,
	}, nil
}

func (t *DraftReply) fetch(ctx context.Context, threadID string) ([]mailbox.Message, error) {
	if !t.opts.RawMIME {
		th, err := t.svc.GetThread(ctx, threadID, gservice.FormatFull)
		if err != nil {
			return nil, fmt.Errorf("svc.GetThread failed: %w", err)
		}

		msgs := make([]mailbox.Message, 0, len(th.Messages))
		for _, m := range th.Messages {
			msgs = append(msgs, mailbox.FromGmail(m))
		}
		return msgs, nil
	}

	th, err := t.svc.GetThread(ctx, threadID, gservice.FormatMinimal)
	if err != nil {
		return nil, fmt.Errorf("svc.GetThread failed: %w", err)
	}

	msgs := make([]mailbox.Message, 0, len(th.Messages))
	for _, m := range th.Messages {
		raw, err := t.svc.GetRawMessage(ctx, m.Id)
		if err != nil {
			return nil, fmt.Errorf("get raw message %s failed: %w", m.Id, err)
		}

		msg, err := mailbox.FromRFC822(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse message %s failed: %w", m.Id, err)
		}
		msg.ID = m.Id
		msg.ThreadID = m.ThreadId

		msgs = append(msgs, msg)
	}

	return msgs, nil
}

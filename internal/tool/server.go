package tool

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reply-mcp/internal/thread"
)

const (
	serverName    = "gmail-reply-mcp"
	serverVersion = "v1.0.0"
)

type gmailSvc interface {
	listUnreadSvc
	draftReplySvc
	sendReplySvc
}

type htmlConverter interface {
	HTML2Text(raw []byte) string
}

type recorder interface {
	ObserveTool(tool string, seconds float64, err error)
	AddSkipped(n int)
	AddDropped(n int)
}

// Options tunes the tools. Zero values fall back to the defaults.
type Options struct {
	LookbackDays int
	MaxResults   int64
	// RawMIME fetches thread messages as RFC 822 instead of the parsed Gmail payload.
	RawMIME    bool
	Classifier thread.Classifier
	Metrics    recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = 5
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 5
	}
	if o.Classifier == nil {
		o.Classifier = thread.DefaultClassifier
	}
	if o.Metrics == nil {
		o.Metrics = nopRecorder{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewServer creates an MCP server with the email reply tools.
func NewServer(svc gmailSvc, conv htmlConverter, opts Options) *mcp.Server {
	opts = opts.withDefaults()

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "list_unread",
		Description: "List unread Gmail messages from the primary inbox received in the last few days. " +
			"Returns one line per thread formatted as `key=value` pairs separated by ` | ` " +
			"with id, thread_id, from and subject. If some messages fail to load, " +
			"the response ends with a count of skipped emails.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, observe("list_unread", opts, NewListUnread(svc, opts).ListUnread))

	mcp.AddTool(server, &mcp.Tool{
		Name: "draft_reply_context",
		Description: "Fetch a Gmail thread and return cleaned, structured context for drafting a reply, " +
			"together with instructions describing how the reply text should be written.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, observe("draft_reply_context", opts, NewDraftReply(svc, conv, opts).DraftReplyContext))

	mcp.AddTool(server, &mcp.Tool{
		Name: "send_reply",
		Description: "Send a reply in an existing Gmail thread as the authenticated user. " +
			"The reply goes to the latest external sender of the thread, or to the user's own " +
			"address when the thread has no external sender.",
	}, observe("send_reply", opts, NewSendReply(svc, opts).SendReply))

	return server
}

func observe[In, Out any](
	name string,
	opts Options,
	h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error),
) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, input)
		opts.Metrics.ObserveTool(name, time.Since(start).Seconds(), err)

		if err != nil {
			opts.Logger.Error("tool call failed", "tool", name, "error", err)
		} else {
			opts.Logger.Debug("tool call done", "tool", name, "duration", time.Since(start))
		}

		return res, out, err
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveTool(string, float64, error) {}
func (nopRecorder) AddSkipped(int)                     {}
func (nopRecorder) AddDropped(int)                     {}

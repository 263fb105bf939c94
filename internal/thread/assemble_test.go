package thread_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reply-mcp/internal/format"
	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-reply-mcp/internal/thread"
)

func newMessage(from, to, subject string, parts ...mailbox.Part) mailbox.Message {
	h := mailbox.Header{}
	if from != "" {
		h.Add("From", from)
	}
	if to != "" {
		h.Add("To", to)
	}
	if subject != "" {
		h.Add("Subject", subject)
	}
	return mailbox.Message{Header: h, Parts: parts}
}

func plain(s string) mailbox.Part {
	return mailbox.Part{MimeType: "text/plain", Data: []byte(s)}
}

func html(s string) mailbox.Part {
	return mailbox.Part{MimeType: "text/html", Data: []byte(s)}
}

func TestAssemble(t *testing.T) {
	cases := []struct {
		name     string
		msgs     []mailbox.Message
		expected []thread.Message
	}{
		{
			name: "roles, order and latest",
			msgs: []mailbox.Message{
				newMessage("Bob <bob@example.org>", "Alice <alice@example.org>", "Plan", plain("Can we\nmeet Friday?")),
				newMessage("Me <me@company.com>", "Bob <bob@example.org>", "Re: Plan", plain("Friday works.")),
				newMessage("Bob <bob@example.org>", "Alice <alice@example.org>", "Re: Plan", plain("Great, see [agenda](https://example.org/a).")),
			},
			expected: []thread.Message{
				{Index: 1, Sender: "Bob <bob@example.org>", Role: thread.RoleExternal, Body: "Can we meet Friday?"},
				{Index: 2, Sender: "Me <me@company.com>", Role: thread.RoleSelf, Body: "Friday works."},
				{Index: 3, Sender: "Bob <bob@example.org>", Role: thread.RoleExternal, Body: "Great, see agenda.", IsLatest: true},
			},
		},
		{
			name: "empty bodies are dropped without using an index",
			msgs: []mailbox.Message{
				newMessage("bob@example.org", "", "", plain("https://example.org/only-a-link")),
				newMessage("carol@example.org", "", "", plain("First real text")),
				newMessage("dave@example.org", "", "", plain("www.example.org/page")),
				newMessage("erin@example.org", "", "", plain("Last words")),
			},
			expected: []thread.Message{
				{Index: 1, Sender: "carol@example.org", Role: thread.RoleExternal, Body: "First real text"},
				{Index: 2, Sender: "erin@example.org", Role: thread.RoleExternal, Body: "Last words", IsLatest: true},
			},
		},
		{
			name: "dropped last message leaves no latest",
			msgs: []mailbox.Message{
				newMessage("bob@example.org", "", "", plain("Hello")),
				newMessage("carol@example.org", "", "", plain("carol@example.org")),
			},
			expected: []thread.Message{
				{Index: 1, Sender: "bob@example.org", Role: thread.RoleExternal, Body: "Hello"},
			},
		},
		{
			name: "missing sender and no readable part",
			msgs: []mailbox.Message{
				newMessage("", "", "", mailbox.Part{MimeType: "image/png", Data: []byte{1, 2}}),
			},
			expected: []thread.Message{
				{Index: 1, Sender: "unknown", Role: thread.RoleExternal, Body: "(empty body)", IsLatest: true},
			},
		},
		{
			name: "html body is converted",
			msgs: []mailbox.Message{
				newMessage("bob@example.org", "", "", html("<p>Hi&nbsp;<b>there</b></p>")),
			},
			expected: []thread.Message{
				{Index: 1, Sender: "bob@example.org", Role: thread.RoleExternal, Body: "Hi there", IsLatest: true},
			},
		},
		{
			name: "html links keep only their label",
			msgs: []mailbox.Message{
				newMessage("bob@example.org", "", "", html(`<p>Read the <a href="https://example.com/post">full post</a> today</p>`)),
				newMessage("carol@example.org", "", "", html(`<p>Write to <a href="mailto:ann@example.com">Ann</a>, thanks.</p>`)),
			},
			expected: []thread.Message{
				{Index: 1, Sender: "bob@example.org", Role: thread.RoleExternal, Body: "Read the full post today"},
				{Index: 2, Sender: "carol@example.org", Role: thread.RoleExternal, Body: "Write to Ann, thanks.", IsLatest: true},
			},
		},
		{
			name:     "empty thread",
			expected: []thread.Message{},
		},
	}

	a := thread.NewAssembler(format.Converter{}, nil)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, a.Assemble(tc.msgs))
		})
	}
}

func TestAssembleInvariants(t *testing.T) {
	bodies := []string{"one", "", "two", "https://x.example", "three", "four", " "}

	for n := 1; n <= len(bodies); n++ {
		msgs := make([]mailbox.Message, 0, n)
		for _, b := range bodies[:n] {
			msgs = append(msgs, newMessage("bob@example.org", "", "", plain(b)))
		}

		out := thread.NewAssembler(format.Converter{}, nil).Assemble(msgs)

		latest := 0
		for i, m := range out {
			require.Equal(t, i+1, m.Index, "indexes must be contiguous from 1")
			if m.IsLatest {
				latest++
				require.Equal(t, len(out)-1, i, "latest must be the highest index")
			}
		}
		assert.LessOrEqual(t, latest, 1)
	}
}

func TestAssembleCustomClassifier(t *testing.T) {
	a := thread.NewAssembler(format.Converter{}, thread.AddressClassifier("alice@example.org"))

	out := a.Assemble([]mailbox.Message{
		newMessage("James <james@example.com>", "alice@example.org", "", plain("From James")),
		newMessage("Alice <alice@example.org>", "james@example.com", "", plain("From Alice")),
	})

	require.Len(t, out, 2)
	assert.Equal(t, thread.RoleExternal, out[0].Role)
	assert.Equal(t, thread.RoleSelf, out[1].Role)
}

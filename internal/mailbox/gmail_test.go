package mailbox_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/mailbox"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestFromGmail(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m-1",
		ThreadId: "t-1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Bob <bob@example.org>"},
				{Name: "Subject", Value: "Lunch"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/plain",
							Headers: []*gmail.MessagePartHeader{
								{Name: "Content-Type", Value: `text/plain; charset="UTF-8"`},
							},
							Body: &gmail.MessagePartBody{Data: b64("Lunch at noon?")},
						},
						{
							MimeType: "text/html",
							Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("<p>Lunch at noon?</p>"))},
						},
					},
				},
				{
					MimeType: "application/pdf",
					Filename: "menu.pdf",
					Headers: []*gmail.MessagePartHeader{
						{Name: "Content-Disposition", Value: `attachment; filename="menu.pdf"`},
					},
					Body: &gmail.MessagePartBody{AttachmentId: "att-1", Size: 1024},
				},
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: "!!not base64!!"},
				},
			},
		},
	}

	m := mailbox.FromGmail(msg)

	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "t-1", m.ThreadID)
	assert.Equal(t, "Bob <bob@example.org>", m.Header.Get("from"))
	assert.Equal(t, "Lunch", m.Header.Get("SUBJECT"))

	require.Len(t, m.Parts, 3)
	assert.Equal(t, mailbox.Part{MimeType: "text/plain", Charset: "UTF-8", Data: []byte("Lunch at noon?")}, m.Parts[0])
	assert.Equal(t, mailbox.Part{MimeType: "text/html", Data: []byte("<p>Lunch at noon?</p>")}, m.Parts[1])
	assert.True(t, m.Parts[2].Encoded)

	plain, html := mailbox.ExtractBody(m.Parts)
	require.NotNil(t, plain)
	require.NotNil(t, html)
	assert.Equal(t, "Lunch at noon?", *plain)
	assert.Equal(t, "<p>Lunch at noon?</p>", *html)
}

func TestFromGmailSinglePart(t *testing.T) {
	msg := &gmail.Message{
		Id: "m-2",
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Content-Type", Value: "text/html; charset=iso-8859-1"},
			},
			Body: &gmail.MessagePartBody{Data: b64("<p>Gr\xfc\xdfe</p>")},
		},
	}

	m := mailbox.FromGmail(msg)
	require.Len(t, m.Parts, 1)

	plain, html := mailbox.ExtractBody(m.Parts)
	assert.Nil(t, plain)
	require.NotNil(t, html)
	assert.Equal(t, "<p>Grüße</p>", *html)
}

func TestFromGmailWithoutPayload(t *testing.T) {
	m := mailbox.FromGmail(&gmail.Message{Id: "m-3", ThreadId: "t-3"})

	assert.Equal(t, "m-3", m.ID)
	assert.Empty(t, m.Parts)
	assert.Empty(t, m.Header.Get("from"))
}

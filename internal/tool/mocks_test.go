package tool_test

import (
	"context"
	"sync"

	"google.golang.org/api/gmail/v1"
)

type gmailSvcMock struct {
	ListMessagesFunc       func(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadataFunc func(ctx context.Context, msgID string) (*gmail.Message, error)
	GetThreadFunc          func(ctx context.Context, threadID, format string) (*gmail.Thread, error)
	GetRawMessageFunc      func(ctx context.Context, msgID string) ([]byte, error)
	SendMessageFunc        func(ctx context.Context, raw []byte, threadID string) (*gmail.Message, error)

	mu    sync.Mutex
	sent  []sentMessage
	query []string
}

type sentMessage struct {
	Raw      []byte
	ThreadID string
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	m.mu.Lock()
	m.query = append(m.query, Q)
	m.mu.Unlock()

	return m.ListMessagesFunc(ctx, Q, pageToken, maxResults)
}

func (m *gmailSvcMock) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageMetadataFunc(ctx, msgID)
}

func (m *gmailSvcMock) GetThread(ctx context.Context, threadID, format string) (*gmail.Thread, error) {
	return m.GetThreadFunc(ctx, threadID, format)
}

func (m *gmailSvcMock) GetRawMessage(ctx context.Context, msgID string) ([]byte, error) {
	return m.GetRawMessageFunc(ctx, msgID)
}

func (m *gmailSvcMock) SendMessage(ctx context.Context, raw []byte, threadID string) (*gmail.Message, error) {
	m.mu.Lock()
	m.sent = append(m.sent, sentMessage{Raw: raw, ThreadID: threadID})
	m.mu.Unlock()

	if m.SendMessageFunc == nil {
		return &gmail.Message{Id: "sent-1", ThreadId: threadID}, nil
	}
	return m.SendMessageFunc(ctx, raw, threadID)
}

func (m *gmailSvcMock) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *gmailSvcMock) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.query...)
}

type converterMock struct {
	HTML2TextFunc func(raw []byte) string
}

func (m *converterMock) HTML2Text(raw []byte) string {
	if m.HTML2TextFunc == nil {
		return string(raw)
	}
	return m.HTML2TextFunc(raw)
}

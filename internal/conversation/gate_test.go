package conversation

import (
	"context"
	"testing"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateClosedWhilePending(t *testing.T) {
	g := NewGate(model.Conversation{PendingResponse: true})

	for _, text := range []string{"", "hi", "   ", "a much longer message with content"} {
		assert.False(t, g.CanSend(text), text)
	}
	assert.False(t, g.Open())
}

func TestGateReopensAfterRefresh(t *testing.T) {
	g := NewGate(model.Conversation{PendingResponse: true})
	require.False(t, g.CanSend("hello"))

	g.Refresh(model.Conversation{PendingResponse: false})
	assert.True(t, g.CanSend("hello"))
	assert.True(t, g.Open())
	assert.False(t, g.CanSend("  "))
}

func TestGateBlocked(t *testing.T) {
	g := NewGate(model.Conversation{Blocked: true})
	assert.False(t, g.CanSend("hello"))
}

type fakeBackend struct {
	convs []model.Conversation
	calls int
	sent  []model.SendMessageRequest
}

func (f *fakeBackend) Conversation(ctx context.Context, creds backend.Credentials, user string) (*model.Conversation, error) {
	conv := f.convs[f.calls]
	if f.calls < len(f.convs)-1 {
		f.calls++
	}
	return &conv, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, creds backend.Credentials, req model.SendMessageRequest) (*model.Message, error) {
	f.sent = append(f.sent, req)
	return &model.Message{To: req.To, Text: req.Text}, nil
}

func TestMessengerSendRefetchesBeforePosting(t *testing.T) {
	b := &fakeBackend{convs: []model.Conversation{
		{With: "bob", PendingResponse: true},
		{With: "bob", PendingResponse: false},
	}}
	m := NewMessenger(b, zerolog.Nop())
	creds := backend.BearerToken("t")

	_, err := m.Send(context.Background(), creds, model.SendMessageRequest{To: "bob", Text: "hello"})
	assert.ErrorIs(t, err, ErrPendingResponse)
	assert.Empty(t, b.sent)

	msg, err := m.Send(context.Background(), creds, model.SendMessageRequest{To: "bob", Text: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	require.Len(t, b.sent, 1)
}

func TestMessengerRejectsBlankText(t *testing.T) {
	b := &fakeBackend{convs: []model.Conversation{{With: "bob"}}}
	m := NewMessenger(b, zerolog.Nop())

	_, err := m.Send(context.Background(), backend.BearerToken("t"), model.SendMessageRequest{To: "bob", Text: " "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, b.sent)
}

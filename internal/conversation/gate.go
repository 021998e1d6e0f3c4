// Package conversation enforces the backend's turn-taking rule on messages.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/model"

	"github.com/rs/zerolog"
)

var (
	ErrPendingResponse = errors.New("waiting for the other party to respond")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrBlocked         = errors.New("conversation is blocked")
)

// Gate holds the last loaded state of one conversation. Its answer only
// changes when a fresher conversation is passed to Refresh.
type Gate struct {
	mu      sync.RWMutex
	pending bool
	blocked bool
}

func NewGate(conv model.Conversation) *Gate {
	g := &Gate{}
	g.Refresh(conv)
	return g
}

// Refresh replaces the gate state with a newly fetched conversation
func (g *Gate) Refresh(conv model.Conversation) {
	g.mu.Lock()
	g.pending = conv.PendingResponse
	g.blocked = conv.Blocked
	g.mu.Unlock()
}

// CanSend reports whether text may be sent now. A pending response closes the
// gate whatever the text is.
func (g *Gate) CanSend(text string) bool {
	return g.check(text) == nil
}

func (g *Gate) check(text string) error {
	g.mu.RLock()
	pending, blocked := g.pending, g.blocked
	g.mu.RUnlock()

	switch {
	case pending:
		return ErrPendingResponse
	case blocked:
		return ErrBlocked
	case strings.TrimSpace(text) == "":
		return ErrEmptyMessage
	}
	return nil
}

// Open reports whether the compose control should be enabled
func (g *Gate) Open() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.pending && !g.blocked
}

type Backend interface {
	Conversation(ctx context.Context, creds backend.Credentials, user string) (*model.Conversation, error)
	SendMessage(ctx context.Context, creds backend.Credentials, req model.SendMessageRequest) (*model.Message, error)
}

// Messenger sends messages through a freshly refreshed gate
type Messenger struct {
	backend Backend
	logger  zerolog.Logger
}

func NewMessenger(b Backend, logger zerolog.Logger) *Messenger {
	return &Messenger{backend: b, logger: logger.With().Str("component", "conversation").Logger()}
}

// Load fetches the conversation with user and the gate built from it
func (m *Messenger) Load(ctx context.Context, creds backend.Credentials, user string) (*model.Conversation, *Gate, error) {
	conv, err := m.backend.Conversation(ctx, creds, user)
	if err != nil {
		return nil, nil, err
	}
	return conv, NewGate(*conv), nil
}

// Send re-fetches the conversation, consults the gate and posts the message
// only when it is open.
func (m *Messenger) Send(ctx context.Context, creds backend.Credentials, req model.SendMessageRequest) (*model.Message, error) {
	_, gate, err := m.Load(ctx, creds, req.To)
	if err != nil {
		return nil, err
	}
	if err := gate.check(req.Text); err != nil {
		m.logger.Debug().Err(err).Str("to", req.To).Msg("message held back")
		return nil, err
	}

	req.Text = strings.TrimSpace(req.Text)
	return m.backend.SendMessage(ctx, creds, req)
}

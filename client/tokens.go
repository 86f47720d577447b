package client

import (
	"context"
	"sync"
)

// Tokens is the access/refresh pair issued by the auth endpoints.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// TokenSource persists the token pair between calls.
type TokenSource interface {
	Token(ctx context.Context) (Tokens, error)
	SetToken(ctx context.Context, t Tokens) error
	ClearToken(ctx context.Context) error
}

// MemoryTokens keeps tokens in process memory.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryTokens(t Tokens) *MemoryTokens {
	return &MemoryTokens{tokens: t}
}

func (m *MemoryTokens) Token(context.Context) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryTokens) SetToken(_ context.Context, t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

func (m *MemoryTokens) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}

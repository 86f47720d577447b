package client

import (
	"context"
	"errors"
	"fmt"
)

// AuthService logs administrators in and manages the stored token pair.
type AuthService struct {
	c *Client
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair and stores it.
func (s *AuthService) Login(ctx context.Context, email, password string) (Tokens, error) {
	if email == "" || password == "" {
		return Tokens{}, ErrMissingCredentials
	}
	var t Tokens
	if err := s.c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &t); err != nil {
		return Tokens{}, err
	}
	if t.Access == "" {
		return Tokens{}, errors.New("login response missing access_token")
	}
	if err := s.c.tokens.SetToken(ctx, t); err != nil {
		return Tokens{}, fmt.Errorf("store tokens: %w", err)
	}
	return t, nil
}

// Refresh forces a token refresh regardless of the current token's state.
func (s *AuthService) Refresh(ctx context.Context) (Tokens, error) {
	current, err := s.c.tokens.Token(ctx)
	if err != nil {
		return Tokens{}, fmt.Errorf("load tokens: %w", err)
	}
	if current.Refresh == "" {
		return Tokens{}, ErrSessionExpired
	}
	return s.c.refresh(ctx, current)
}

// Logout forgets the stored tokens. The backend keeps no server session.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.c.tokens.ClearToken(ctx)
}

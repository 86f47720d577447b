package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barlyqqyzmet/admin/client"
)

// signToken builds a token signed with a throwaway key; only the payload
// matters to this package.
func signToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": 42,
		"email":   "admin@barlyq.kz",
		"role":    role,
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-real-key"))
	require.NoError(t, err)
	return s
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c, err := ParseClaims(signToken(t, "admin", exp))
	require.NoError(t, err)

	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, "admin@barlyq.kz", c.Email)
	assert.True(t, c.IsAdmin())
	assert.True(t, exp.Equal(c.ExpiresAt))
	assert.Equal(t, "admin@barlyq.kz", c.Subject())
}

func TestParseClaimsErrors(t *testing.T) {
	_, err := ParseClaims("")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = ParseClaims("not.a.jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = ParseClaims("garbage")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestCheckAdmin(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid admin", signToken(t, "admin", now.Add(time.Hour)), nil},
		{"admin without exp", signToken(t, "admin", time.Time{}), nil},
		{"expired admin", signToken(t, "admin", now.Add(-time.Minute)), ErrTokenExpired},
		{"regular user", signToken(t, "user", now.Add(time.Hour)), ErrNotAdmin},
		{"expired user", signToken(t, "user", now.Add(-time.Hour)), ErrNotAdmin},
		{"role is case sensitive", signToken(t, "Admin", now.Add(time.Hour)), ErrNotAdmin},
		{"empty", "", ErrNoToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckAdmin(tt.token, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubjectFallbacks(t *testing.T) {
	assert.Equal(t, "user:7", (&Claims{UserID: 7}).Subject())
	assert.Equal(t, "unknown", (&Claims{}).Subject())
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db)
	require.NoError(t, s.Init())
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tok := client.Tokens{Access: signToken(t, "admin", time.Now().Add(time.Hour)), Refresh: "refresh-1"}
	require.NoError(t, s.Save(ctx, CLISession, tok))

	got, err := s.Load(ctx, CLISession)
	require.NoError(t, err)
	assert.Equal(t, tok, got)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "admin@barlyq.kz", sessions[0].Subject)
	assert.True(t, sessions[0].HasRefresh)

	require.NoError(t, s.Delete(ctx, CLISession))
	got, err = s.Load(ctx, CLISession)
	require.NoError(t, err)
	assert.Equal(t, client.Tokens{}, got)
}

func TestStoreDropsExpiredAccessKeepsRefresh(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.Save(ctx, "browser-1", client.Tokens{
		Access:  signToken(t, "admin", now.Add(time.Minute)),
		Refresh: "refresh-1",
	}))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }

	got, err := s.Load(ctx, "browser-1")
	require.NoError(t, err)
	assert.Empty(t, got.Access)
	assert.Equal(t, "refresh-1", got.Refresh)
}

func TestStoreSourceIsolatesSessions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a, b := s.Source("a"), s.Source("b")
	require.NoError(t, a.SetToken(ctx, client.Tokens{Access: "opaque-a", Refresh: "ra"}))
	require.NoError(t, b.SetToken(ctx, client.Tokens{Access: "opaque-b", Refresh: "rb"}))

	got, _ := a.Token(ctx)
	assert.Equal(t, "opaque-a", got.Access)

	require.NoError(t, a.ClearToken(ctx))
	got, _ = a.Token(ctx)
	assert.Equal(t, client.Tokens{}, got)
	got, _ = b.Token(ctx)
	assert.Equal(t, "rb", got.Refresh)
}

package local

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/auth"
)

func adminToken(t *testing.T) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"email":   "ops@barlyq.kz",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestEngineSessionPersistsAcrossOpens(t *testing.T) {
	access := adminToken(t)
	var categoryHits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": access, "refresh_token": "r1"})
		case "/category":
			categoryHits++
			assert.Equal(t, "Bearer "+access, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[{"id":1,"name":"Repair"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	dir := t.TempDir()
	ctx := context.Background()

	e, err := Open(Options{BaseDir: dir, APIURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)
	_, err = e.Client(auth.CLISession).Auth.Login(ctx, "ops@barlyq.kz", "secret")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	e, err = Open(Options{BaseDir: dir, APIURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)
	defer e.Close()

	claims, err := e.Claims(ctx, auth.CLISession)
	require.NoError(t, err)
	assert.Equal(t, "ops@barlyq.kz", claims.Subject())
	assert.True(t, claims.IsAdmin())

	c := e.Client(auth.CLISession)
	for i := 0; i < 2; i++ {
		cats, err := c.Categories.List(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 1)
	}
	assert.Equal(t, 1, categoryHits, "second list is served from the cache")

	_, err = e.Claims(ctx, "dashboard-other")
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestOpenDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "ws")
	e, err := Open(Options{BaseDir: dir})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, dir, e.BaseDir())
	assert.Equal(t, client.DefaultBaseURL, e.APIURL())
	assert.NotNil(t, e.Logger())
	_, err = os.Stat(filepath.Join(dir, "barlyq.db"))
	assert.NoError(t, err)

	_, err = e.Audit().Append("ops@barlyq.kz", audit.ActionLogin, "", nil)
	require.NoError(t, err)
	events, err := e.Audit().List(audit.Filter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

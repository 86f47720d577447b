package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barlyqqyzmet/admin/client"
)

// api is a fake platform backend.
type api struct {
	t      *testing.T
	admin  string
	mu     sync.Mutex
	calls  []string
	server *httptest.Server
}

func newAPI(t *testing.T) *api {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"email":   "admin@barlyq.kz",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	a := &api{t: t, admin: s}
	a.server = httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(a.server.Close)
	return a
}

func (a *api) called(call string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (a *api) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.calls = append(a.calls, r.Method+" "+r.URL.Path)
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	write := func(v any) { _ = json.NewEncoder(w).Encode(v) }

	switch {
	case r.URL.Path == "/auth/login":
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "admin@barlyq.kz" || body.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			write(map[string]string{"error": "invalid credentials"})
			return
		}
		write(map[string]string{"access_token": a.admin, "refresh_token": "r1"})
	case r.Header.Get("Authorization") != "Bearer "+a.admin:
		w.WriteHeader(http.StatusUnauthorized)
	case r.URL.Path == "/user" && r.Method == http.MethodGet:
		write([]map[string]any{
			{"id": 5, "name": "Dana", "surname": "Sarsen", "email": "dana@example.kz"},
			{"id": 6, "name": "Bolat", "email": "bolat@example.kz"},
		})
	case r.URL.Path == "/user/5" && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/work_ad/4" && r.Method == http.MethodGet:
		write(map[string]any{"id": 4, "name": "Need a welder", "price": 12000})
	case r.URL.Path == "/taxi/drivers/8/approval":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(a.t, "rejected", body["status"])
		w.WriteHeader(http.StatusNoContent)
	default:
		write([]any{})
	}
}

// cli runs barlyq commands against one workspace and backend.
type cli struct {
	t      *testing.T
	config string
}

func newCLI(t *testing.T, backend *api) *cli {
	dir := t.TempDir()
	t.Setenv("BARLYQ_BASE_DIR", dir)
	t.Setenv("BARLYQ_API_URL", backend.server.URL)
	return &cli{t: t, config: filepath.Join(dir, "config.yaml")}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	root := newRoot(&app{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) login() {
	c.t.Helper()
	out, err := c.run("", "login", "--email", "admin@barlyq.kz", "--password", "pw")
	require.NoError(c.t, err)
	require.Contains(c.t, out, "Signed in as admin@barlyq.kz")
}

func TestCommandsRequireLogin(t *testing.T) {
	c := newCLI(t, newAPI(t))
	_, err := c.run("", "users", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "barlyq login")
}

func TestLoginBadCredentials(t *testing.T) {
	c := newCLI(t, newAPI(t))
	_, err := c.run("", "login", "--email", "admin@barlyq.kz", "--password", "nope")
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestLoginPromptsForCredentials(t *testing.T) {
	c := newCLI(t, newAPI(t))
	out, err := c.run("admin@barlyq.kz\npw\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Email:")
	assert.Contains(t, out, "Signed in as admin@barlyq.kz")

	out, err = c.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@barlyq.kz")
}

func TestUsersList(t *testing.T) {
	c := newCLI(t, newAPI(t))
	c.login()

	out, err := c.run("", "users", "list", "--search", "dana")
	require.NoError(t, err)
	assert.Contains(t, out, "Dana Sarsen")
	assert.NotContains(t, out, "Bolat")
	assert.Contains(t, out, "1-1 of 1")

	out, err = c.run("", "--json", "users", "list", "--sort", "name")
	require.NoError(t, err)
	var users []client.User
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "Bolat", users[0].Name)

	out, err = c.run("", "users", "list", "--offset", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing found.")
	assert.NotContains(t, out, "100 of")
	assert.NotContains(t, out, "Dana")

	_, err = c.run("", "users", "list", "--sort", "shoe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort key")
}

func TestUserDeleteConfirmsAndAudits(t *testing.T) {
	backend := newAPI(t)
	c := newCLI(t, backend)
	c.login()

	_, err := c.run("n\n", "users", "delete", "5")
	assert.ErrorIs(t, err, errAborted)
	assert.False(t, backend.called("DELETE /user/5"))

	out, err := c.run("", "users", "delete", "5", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted user 5")
	assert.True(t, backend.called("DELETE /user/5"))

	out, err = c.run("", "audit", "--action", "user.deleted")
	require.NoError(t, err)
	assert.Contains(t, out, "user/5")
	assert.Contains(t, out, "admin@barlyq.kz")
}

func TestListingGetByReference(t *testing.T) {
	c := newCLI(t, newAPI(t))
	c.login()

	for _, ref := range [][]string{{"work_ad/4"}, {"work_ad-4"}, {"work_ad", "4"}} {
		out, err := c.run("", append([]string{"listings", "get"}, ref...)...)
		require.NoError(t, err, ref)
		assert.Contains(t, out, "Need a welder", ref)
	}
}

func TestListingRef(t *testing.T) {
	kind, id, err := listingRef([]string{"rent_ad-12"})
	require.NoError(t, err)
	assert.Equal(t, client.KindRentAd, kind)
	assert.Equal(t, int64(12), id)

	_, _, err = listingRef([]string{"boat/1"})
	assert.ErrorIs(t, err, client.ErrInvalidKind)

	_, _, err = listingRef([]string{"service/x"})
	assert.Error(t, err)

	_, _, err = listingRef([]string{"service"})
	assert.Error(t, err)
}

func TestDriverReject(t *testing.T) {
	backend := newAPI(t)
	c := newCLI(t, backend)
	c.login()

	out, err := c.run("", "taxi", "reject", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "driver 8 rejected")
	assert.True(t, backend.called("PUT /taxi/drivers/8/approval"))

	out, err = c.run("", "--json", "audit")
	require.NoError(t, err)
	assert.Contains(t, out, `"driver.approval"`)
	assert.Contains(t, out, `"driver/8"`)
}

func TestCacheCommands(t *testing.T) {
	c := newCLI(t, newAPI(t))
	out, err := c.run("", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries")

	out, err = c.run("", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared 0 entries")
}

package dashboard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/auth"
)

const (
	sessionCookie = "sid"
	flashCookie   = "flash"
	webPrefix     = "web:"
)

type ctxKey int

const sessionKey ctxKey = iota

// session is the authenticated admin behind a request.
type session struct {
	ID     string
	Claims *auth.Claims
	API    *client.Client
}

func (s *session) Actor() string { return s.Claims.Subject() }

func sessionFrom(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionKey).(*session)
	return sess
}

func storeKey(sid string) string { return webPrefix + sid }

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

const (
	flashSuccess = "success"
	flashError   = "error"
)

func (s *Server) setFlash(w http.ResponseWriter, kind, msg string) {
	data, _ := json.Marshal(Flash{Kind: kind, Message: msg})
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
}

// authenticate loads the session behind the sid cookie and checks that it
// belongs to an administrator. An expired access token is refreshed once.
func (s *Server) authenticate(r *http.Request) (*session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, auth.ErrNoToken
	}
	ctx := r.Context()
	key := storeKey(c.Value)
	tokens, err := s.engine.Tokens().Load(ctx, key)
	if err != nil {
		return nil, err
	}
	api := s.engine.Client(key)

	claims, err := auth.CheckAdmin(tokens.Access, s.now())
	if (errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrNoToken)) && tokens.Refresh != "" {
		fresh, rerr := api.Auth.Refresh(ctx)
		if rerr != nil {
			return nil, rerr
		}
		s.log.Debug("session refreshed", zap.String("sid", c.Value))
		claims, err = auth.CheckAdmin(fresh.Access, s.now())
	}
	if err != nil {
		return nil, err
	}
	return &session{ID: c.Value, Claims: claims, API: api}, nil
}

// requireAdmin redirects to the login page unless the request carries a
// valid admin session.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.authenticate(r)
		if err != nil && !sessionEnded(err) {
			// Backend or store trouble: keep the session for the next try.
			s.log.Warn("session check failed", zap.String("path", r.URL.Path), zap.Error(err))
			s.page(w, r, http.StatusBadGateway, "error.html", "Error", errorData{
				Status:  http.StatusBadGateway,
				Message: "The platform API is unavailable. Please try again shortly.",
			})
			return
		}
		if err != nil {
			s.dropSession(w, r)
			switch {
			case errors.Is(err, auth.ErrNotAdmin):
				s.setFlash(w, flashError, "This account is not an administrator.")
			case errors.Is(err, client.ErrSessionExpired), errors.Is(err, auth.ErrTokenExpired):
				s.setFlash(w, flashError, "Your session has expired. Please sign in again.")
			case errors.Is(err, auth.ErrMalformedToken):
				s.setFlash(w, flashError, "Could not verify your session. Please sign in again.")
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// sessionEnded reports whether err means the stored session can never
// authenticate again.
func sessionEnded(err error) bool {
	return errors.Is(err, auth.ErrNoToken) ||
		errors.Is(err, auth.ErrNotAdmin) ||
		errors.Is(err, auth.ErrMalformedToken) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, client.ErrSessionExpired)
}

func (s *Server) dropSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if err := s.engine.Tokens().Delete(r.Context(), storeKey(c.Value)); err != nil {
			s.log.Warn("delete session", zap.Error(err))
		}
		s.clearSessionCookie(w)
	}
}

type loginData struct {
	Email string
	Error string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.page(w, r, http.StatusOK, "login.html", "Sign in", loginData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.page(w, r, http.StatusBadRequest, "login.html", "Sign in", loginData{Error: "Malformed form."})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	sid := uuid.New().String()
	api := s.engine.Client(storeKey(sid))
	tokens, err := api.Auth.Login(r.Context(), email, password)
	if err != nil {
		s.log.Info("login failed", zap.String("email", email), zap.Error(err))
		s.page(w, r, http.StatusUnauthorized, "login.html", "Sign in", loginData{Email: email, Error: loginError(err)})
		return
	}

	claims, err := auth.CheckAdmin(tokens.Access, s.now())
	if err != nil {
		_ = api.Auth.Logout(r.Context())
		msg := "Your session could not be verified."
		if errors.Is(err, auth.ErrNotAdmin) {
			msg = "This account is not an administrator."
		}
		s.page(w, r, http.StatusForbidden, "login.html", "Sign in", loginData{Email: email, Error: msg})
		return
	}

	s.setSessionCookie(w, sid)
	s.record(r, claims.Subject(), audit.ActionLogin, "", nil)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func loginError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest {
			return "Invalid email or password."
		}
		return apiErr.Message
	}
	if errors.Is(err, client.ErrMissingCredentials) {
		return "Email and password are required."
	}
	return "The platform is unreachable. Try again later."
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.API.Auth.Logout(r.Context()); err != nil {
		s.log.Warn("logout", zap.Error(err))
	}
	s.clearSessionCookie(w)
	s.record(r, sess.Actor(), audit.ActionLogout, "", nil)
	s.setFlash(w, flashSuccess, "Signed out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Package dashboard serves the web admin UI: server-rendered pages over the
// platform API, one session per browser kept in the local token store.
package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/local"
	"github.com/barlyqqyzmet/admin/internal/table"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config for Server construction.
type Config struct {
	PageSize     int
	CookieSecure bool
	Logger       *zap.Logger
}

// Server is the dashboard HTTP handler.
type Server struct {
	engine   *local.Engine
	cfg      Config
	log      *zap.Logger
	renderer *renderer
	router   *mux.Router
	now      func() time.Time
}

func New(engine *local.Engine, cfg Config) (*Server, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = table.DefaultLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	rnd, err := newRenderer(templatesFS, engine.APIURL())
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:   engine,
		cfg:      cfg,
		log:      cfg.Logger,
		renderer: rnd,
		now:      time.Now,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.logMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	a := r.NewRoute().Subrouter()
	a.Use(s.requireAdmin)
	a.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	a.HandleFunc("/", s.handleOverview).Methods(http.MethodGet)

	a.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet)
	a.HandleFunc("/users/{id:[0-9]+}", s.handleUser).Methods(http.MethodGet)
	a.HandleFunc("/users/{id:[0-9]+}/delete", s.handleUserDelete).Methods(http.MethodPost)

	a.HandleFunc("/listings", s.handleListings).Methods(http.MethodGet)
	a.HandleFunc("/listings/{kind}/{id:[0-9]+}", s.handleListing).Methods(http.MethodGet)
	a.HandleFunc("/listings/{kind}/{id:[0-9]+}/delete", s.handleListingDelete).Methods(http.MethodPost)

	a.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	a.HandleFunc("/categories", s.handleCategoryCreate).Methods(http.MethodPost)
	a.HandleFunc("/categories/{id:[0-9]+}/delete", s.handleCategoryDelete).Methods(http.MethodPost)
	a.HandleFunc("/categories/{id:[0-9]+}/subcategories", s.handleSubcategoryCreate).Methods(http.MethodPost)
	a.HandleFunc("/subcategories/{id:[0-9]+}/delete", s.handleSubcategoryDelete).Methods(http.MethodPost)

	a.HandleFunc("/complaints", s.handleComplaints).Methods(http.MethodGet)
	a.HandleFunc("/complaints/{id:[0-9]+}/delete", s.handleComplaintDelete).Methods(http.MethodPost)

	a.HandleFunc("/taxi/orders", s.handleTaxiOrders).Methods(http.MethodGet)
	a.HandleFunc("/taxi/drivers", s.handleDrivers).Methods(http.MethodGet)
	a.HandleFunc("/taxi/drivers/{id:[0-9]+}/approval", s.handleDriverApproval).Methods(http.MethodPost)

	a.HandleFunc("/courier/orders", s.handleCourierOrders).Methods(http.MethodGet)
	a.HandleFunc("/courier/couriers", s.handleCouriers).Methods(http.MethodGet)
	a.HandleFunc("/courier/couriers/{id:[0-9]+}/approval", s.handleCourierApproval).Methods(http.MethodPost)

	s.router = r
}

// --- Middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic recovered", zap.Any("error", err), zap.String("path", r.URL.Path))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// page renders a full page with the common layout data.
func (s *Server) page(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	pd := PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Flash:       s.popFlash(w, r),
		Data:        data,
	}
	if sess := sessionFrom(r.Context()); sess != nil {
		pd.User = sess.Actor()
	}
	if err := s.renderer.render(w, status, name, pd); err != nil {
		s.log.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type errorData struct {
	Status  int
	Message string
}

// fail renders an API failure. An expired session goes back to login.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, client.ErrSessionExpired) {
		s.dropSession(w, r)
		s.setFlash(w, flashError, "Your session has expired. Please sign in again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	status, msg := http.StatusBadGateway, "The platform API is unavailable."
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			status, msg = http.StatusNotFound, "Not found."
		case apiErr.StatusCode == http.StatusForbidden:
			status = http.StatusForbidden
		}
	}
	s.log.Warn("api call failed", zap.String("path", r.URL.Path), zap.Error(err))
	s.page(w, r, status, "error.html", "Error", errorData{Status: status, Message: msg})
}

// done finishes a POST action: flash the outcome and go back.
func (s *Server) done(w http.ResponseWriter, r *http.Request, fallback string, err error, success string) {
	if errors.Is(err, client.ErrSessionExpired) {
		s.fail(w, r, err)
		return
	}
	if err != nil {
		s.log.Warn("action failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.setFlash(w, flashError, actionError(err))
	} else {
		s.setFlash(w, flashSuccess, success)
	}
	http.Redirect(w, r, returnTo(r, fallback), http.StatusSeeOther)
}

func actionError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, client.ErrInvalidStatus) || errors.Is(err, client.ErrInvalidKind) || errors.Is(err, client.ErrNameRequired) {
		return err.Error()
	}
	return "The platform API is unavailable."
}

// returnTo honours a local "return" form value so actions keep the list
// state of the page they were posted from.
func returnTo(r *http.Request, fallback string) string {
	ret := r.FormValue("return")
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") || strings.HasPrefix(ret, "/\\") {
		return fallback
	}
	if u, err := url.Parse(ret); err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return ret
}

func (s *Server) record(r *http.Request, actor string, action audit.Action, resource string, payload any) {
	if _, err := s.engine.Audit().Append(actor, action, resource, payload); err != nil {
		s.log.Warn("audit append failed",
			zap.String("action", string(action)),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

package local

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/auth"
	"github.com/barlyqqyzmet/admin/internal/cache"
	"github.com/barlyqqyzmet/admin/internal/lock"
	"github.com/barlyqqyzmet/admin/internal/storage"
)

const refreshLockFile = "refresh.lock"

// Options configure an Engine. Zero values fall back to client defaults.
type Options struct {
	BaseDir       string
	APIURL        string
	Timeout       time.Duration
	RefreshHeader string
	CacheTTL      time.Duration
	Logger        *zap.Logger
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Engine owns the local workspace: the SQLite database and the stores
// layered on it. One engine is shared by all sessions of a process.
type Engine struct {
	db   *sql.DB
	opts Options
	log  *zap.Logger

	tokens *auth.Store
	cache  *cache.Cache
	audit  *audit.Store
}

// DefaultBaseDir is ~/.barlyq.
func DefaultBaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".barlyq")
}

func Open(opts Options) (*Engine, error) {
	if opts.BaseDir == "" {
		opts.BaseDir = DefaultBaseDir()
	}
	if opts.APIURL == "" {
		opts.APIURL = client.DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = client.DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(opts.BaseDir, 0700); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	db, err := storage.OpenDB(opts.BaseDir)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		db:     db,
		opts:   opts,
		log:    opts.Logger,
		tokens: auth.NewStore(db),
		cache:  cache.New(db),
		audit:  audit.NewStore(db, opts.BaseDir),
	}

	for _, init := range []func() error{
		e.tokens.Init,
		e.cache.Init,
		e.audit.Init,
	} {
		if err := init(); err != nil {
			_ = e.Close()
			return nil, err
		}
	}

	if n, err := e.cache.Purge(); err != nil {
		e.log.Warn("cache purge failed", zap.Error(err))
	} else if n > 0 {
		e.log.Debug("purged expired cache entries", zap.Int64("count", n))
	}
	return e, nil
}

func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// Client returns an API client whose tokens persist under session.
func (e *Engine) Client(session string) *client.Client {
	hc := e.opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: e.opts.Timeout}
	}
	opts := []client.Option{
		client.WithHTTPClient(hc),
		client.WithTokenSource(e.tokens.Source(session)),
		client.WithCache(e.cache, e.opts.CacheTTL),
		client.WithLogger(e.log.With(zap.String("session", session))),
		client.WithRefreshGuard(lock.Guard(filepath.Join(e.opts.BaseDir, refreshLockFile))),
	}
	if e.opts.RefreshHeader != "" {
		opts = append(opts, client.WithRefreshHeader(e.opts.RefreshHeader))
	}
	return client.New(e.opts.APIURL, opts...)
}

// Claims decodes the stored access token of session.
func (e *Engine) Claims(ctx context.Context, session string) (*auth.Claims, error) {
	t, err := e.tokens.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	return auth.ParseClaims(t.Access)
}

func (e *Engine) BaseDir() string     { return e.opts.BaseDir }
func (e *Engine) APIURL() string      { return e.opts.APIURL }
func (e *Engine) Tokens() *auth.Store { return e.tokens }
func (e *Engine) Cache() *cache.Cache { return e.cache }
func (e *Engine) Audit() *audit.Store { return e.audit }
func (e *Engine) Logger() *zap.Logger { return e.log }

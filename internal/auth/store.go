package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/barlyqqyzmet/admin/client"
)

const tsLayout = time.RFC3339

// CLISession is the session name used by the command line tool.
const CLISession = "cli"

// Store keeps token pairs in SQLite, one row per session. The access token
// carries an expiry taken from its exp claim, like a browser cookie would.
// The refresh token has no expiry of its own.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id                TEXT PRIMARY KEY,
			access_token      TEXT NOT NULL DEFAULT '',
			access_expires_at TEXT NOT NULL DEFAULT '',
			refresh_token     TEXT NOT NULL DEFAULT '',
			subject           TEXT NOT NULL DEFAULT '',
			updated_at        TEXT NOT NULL
		);
	`)
	return err
}

// Session describes a stored session.
type Session struct {
	ID              string
	Subject         string
	AccessExpiresAt time.Time
	HasRefresh      bool
	UpdatedAt       time.Time
}

// Load returns the tokens for session. An access token whose cookie expiry
// has passed is dropped, the refresh token is kept so it can renew it.
func (s *Store) Load(ctx context.Context, session string) (client.Tokens, error) {
	var access, expires, refresh string
	err := s.db.QueryRowContext(ctx, `
		SELECT access_token, access_expires_at, refresh_token FROM sessions WHERE id = ?
	`, session).Scan(&access, &expires, &refresh)
	if err == sql.ErrNoRows {
		return client.Tokens{}, nil
	}
	if err != nil {
		return client.Tokens{}, fmt.Errorf("query session: %w", err)
	}
	if expires != "" {
		if exp, err := time.Parse(tsLayout, expires); err == nil && !s.now().Before(exp) {
			access = ""
		}
	}
	return client.Tokens{Access: access, Refresh: refresh}, nil
}

// Save stores the pair for session, replacing what was there.
func (s *Store) Save(ctx context.Context, session string, t client.Tokens) error {
	var expires, subject string
	if c, err := ParseClaims(t.Access); err == nil {
		subject = c.Subject()
		if !c.ExpiresAt.IsZero() {
			expires = c.ExpiresAt.UTC().Format(tsLayout)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, access_token, access_expires_at, refresh_token, subject, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			access_expires_at = excluded.access_expires_at,
			refresh_token = excluded.refresh_token,
			subject = excluded.subject,
			updated_at = excluded.updated_at
	`, session, t.Access, expires, t.Refresh, subject, s.now().UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, session string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, session)
	return err
}

// Sessions lists stored sessions, most recently updated first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, access_expires_at, refresh_token != '', updated_at
		FROM sessions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var expires, updated string
		if err := rows.Scan(&sess.ID, &sess.Subject, &expires, &sess.HasRefresh, &updated); err != nil {
			return nil, err
		}
		sess.AccessExpiresAt, _ = time.Parse(tsLayout, expires)
		sess.UpdatedAt, _ = time.Parse(tsLayout, updated)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Source adapts one session of the store to client.TokenSource.
func (s *Store) Source(session string) client.TokenSource {
	return &sessionSource{store: s, session: session}
}

type sessionSource struct {
	store   *Store
	session string
}

func (ss *sessionSource) Token(ctx context.Context) (client.Tokens, error) {
	return ss.store.Load(ctx, ss.session)
}

func (ss *sessionSource) SetToken(ctx context.Context, t client.Tokens) error {
	return ss.store.Save(ctx, ss.session, t)
}

func (ss *sessionSource) ClearToken(ctx context.Context) error {
	return ss.store.Delete(ctx, ss.session)
}

package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogFile is the JSON-lines mirror of the audit table inside the base dir.
const LogFile = "audit.log"

// tsLayout is fixed width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Action identifies what an administrator did.
type Action string

const (
	ActionLogin              Action = "session.login"
	ActionLogout             Action = "session.logout"
	ActionUserUpdated        Action = "user.updated"
	ActionUserDeleted        Action = "user.deleted"
	ActionListingDeleted     Action = "listing.deleted"
	ActionCategoryCreated    Action = "category.created"
	ActionCategoryUpdated    Action = "category.updated"
	ActionCategoryDeleted    Action = "category.deleted"
	ActionSubcategoryCreated Action = "subcategory.created"
	ActionSubcategoryDeleted Action = "subcategory.deleted"
	ActionComplaintDeleted   Action = "complaint.deleted"
	ActionDriverApproval     Action = "driver.approval"
	ActionCourierApproval    Action = "courier.approval"
)

// Event is an immutable log entry.
type Event struct {
	ID        string          `json:"id"`
	Actor     string          `json:"actor"`
	Action    Action          `json:"action"`
	Resource  string          `json:"resource"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Action Action
	Actor  string
	Limit  int
}

// Store is an append-only audit log.
type Store struct {
	db      *sql.DB
	baseDir string
}

func NewStore(db *sql.DB, baseDir string) *Store {
	return &Store{db: db, baseDir: baseDir}
}

func (s *Store) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id        TEXT PRIMARY KEY,
			actor     TEXT NOT NULL,
			action    TEXT NOT NULL,
			resource  TEXT NOT NULL,
			payload   TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_events(action);
		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_events(timestamp);
	`)
	return err
}

// Append records an action against a resource such as "user/12".
func (s *Store) Append(actor string, action Action, resource string, payload any) (*Event, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal audit payload: %w", err)
		}
	}

	ev := &Event{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO audit_events (id, actor, action, resource, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.Actor, ev.Action, ev.Resource, string(ev.Payload), ev.Timestamp.Format(tsLayout))
	if err != nil {
		return nil, fmt.Errorf("insert audit event: %w", err)
	}

	_ = s.appendFile(ev)

	return ev, nil
}

// List returns events newest first.
func (s *Store) List(f Filter) ([]*Event, error) {
	query := `SELECT id, actor, action, resource, payload, timestamp FROM audit_events`
	var where []string
	var args []any
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []*Event
	for rows.Next() {
		var ev Event
		var ts, payload string
		if err := rows.Scan(&ev.ID, &ev.Actor, &ev.Action, &ev.Resource, &payload, &ts); err != nil {
			return nil, err
		}
		if payload != "" {
			ev.Payload = json.RawMessage(payload)
		}
		ev.Timestamp, _ = time.Parse(tsLayout, ts)
		evs = append(evs, &ev)
	}
	return evs, rows.Err()
}

func (s *Store) appendFile(ev *Event) error {
	if s.baseDir == "" {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(s.baseDir, LogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

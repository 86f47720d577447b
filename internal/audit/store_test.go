package audit

import (
	"bufio"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db, dir)
	require.NoError(t, s.Init())
	return s, dir
}

func TestAppendAndList(t *testing.T) {
	s, _ := setupStore(t)

	_, err := s.Append("admin@barlyq.kz", ActionUserDeleted, "user/7", nil)
	require.NoError(t, err)
	_, err = s.Append("admin@barlyq.kz", ActionDriverApproval, "taxi/driver/3", map[string]string{"status": "approved"})
	require.NoError(t, err)
	_, err = s.Append("other@barlyq.kz", ActionComplaintDeleted, "complaint/1", nil)
	require.NoError(t, err)

	all, err := s.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, ActionComplaintDeleted, all[0].Action)
	assert.Equal(t, ActionUserDeleted, all[2].Action)

	approvals, err := s.List(Filter{Action: ActionDriverApproval})
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.JSONEq(t, `{"status":"approved"}`, string(approvals[0].Payload))

	byActor, err := s.List(Filter{Actor: "other@barlyq.kz"})
	require.NoError(t, err)
	assert.Len(t, byActor, 1)

	limited, err := s.List(Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAppendWritesLogFile(t *testing.T) {
	s, dir := setupStore(t)

	_, err := s.Append("admin", ActionLogin, "session/cli", nil)
	require.NoError(t, err)
	_, err = s.Append("admin", ActionLogout, "session/cli", nil)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
	}
	assert.Equal(t, 2, lines)
}

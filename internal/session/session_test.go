package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return NewManager(NewFileStore(path)), path
}

func TestManager_Lifecycle(t *testing.T) {
	m, _ := newFileManager(t)

	_, ok := m.Current()
	assert.False(t, ok, "fresh manager is signed out")
	_, ok = m.Token()
	assert.False(t, ok)

	sess := Session{Email: "shopper@example.com", Role: RoleUser, Token: "tok-1"}
	require.NoError(t, m.Establish(sess))

	got, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, sess, got)

	token, ok := m.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, m.SignOut())
	_, ok = m.Current()
	assert.False(t, ok)
}

func TestManager_EstablishRejectsEmptyToken(t *testing.T) {
	m, _ := newFileManager(t)
	assert.Error(t, m.Establish(Session{Email: "shopper@example.com"}))
}

func TestManager_RestoreAcrossProcesses(t *testing.T) {
	m1, path := newFileManager(t)
	require.NoError(t, m1.Establish(Session{Email: "shopper@example.com", Role: RoleAdmin, Token: "tok-2"}))

	// a second manager over the same file models a process restart
	m2 := NewManager(NewFileStore(path))
	require.NoError(t, m2.Restore())

	got, ok := m2.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-2", got.Token)
	assert.Equal(t, RoleAdmin, got.Role)
}

func TestManager_RestoreWithoutFile(t *testing.T) {
	m, _ := newFileManager(t)
	require.NoError(t, m.Restore())
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestManager_SignOutRemovesFile(t *testing.T) {
	m, path := newFileManager(t)
	require.NoError(t, m.Establish(Session{Email: "shopper@example.com", Token: "tok-3"}))
	require.NoError(t, m.SignOut())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing twice is fine
	require.NoError(t, m.SignOut())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

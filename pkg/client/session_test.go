package client

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SignUpSignInSignOut(t *testing.T) {
	c, _ := newStack(t)
	ctx := context.Background()
	store := NewSessionStore(filepath.Join(t.TempDir(), "luxdrive", "session.json"))

	s := NewSession(c, store, nil)
	assert.Nil(t, s.User())

	res := s.SignUp(ctx, "ann@example.com", "secret1")
	require.NoError(t, res.Error)
	require.NotNil(t, s.User())
	assert.Equal(t, "ann@example.com", s.User().Email)
	assert.NotEmpty(t, c.Token())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"user_session"`)
	assert.NotContains(t, string(raw), "secret1")

	// A new session picks the stored user and token back up.
	c2 := New(c.baseURL, WithHTTPClient(c.httpClient))
	restored := NewSession(c2, store, nil)
	require.NotNil(t, restored.User())
	assert.Equal(t, s.User().ID, restored.User().ID)
	assert.Equal(t, c.Token(), c2.Token())

	mine, err := c2.Bookings(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, restored.SignOut())
	assert.Nil(t, restored.User())
	assert.Empty(t, c2.Token())
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))

	res = restored.SignIn(ctx, "ann@example.com", "secret1")
	require.NoError(t, res.Error)
	assert.Equal(t, s.User().ID, restored.User().ID)
}

func TestSession_AuthErrorsAreReturnedNotRaised(t *testing.T) {
	c, _ := newStack(t)
	ctx := context.Background()
	s := NewSession(c, NewSessionStore(filepath.Join(t.TempDir(), "session.json")), nil)

	require.NoError(t, s.SignUp(ctx, "ann@example.com", "secret1").Error)
	require.NoError(t, s.SignOut())

	res := s.SignUp(ctx, "ann@example.com", "secret1")
	var apiErr *APIError
	require.ErrorAs(t, res.Error, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Email already exists", apiErr.Message)
	assert.Nil(t, s.User())

	res = s.SignIn(ctx, "ann@example.com", "wrong")
	require.ErrorAs(t, res.Error, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Nil(t, s.User())
}

func TestSession_CorruptStoreIsRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s := NewSession(New("http://127.0.0.1:0"), NewSessionStore(path), nil)
	assert.Nil(t, s.User())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSession_MissingStoreStartsSignedOut(t *testing.T) {
	s := NewSession(New(""), NewSessionStore(filepath.Join(t.TempDir(), "none.json")), nil)
	assert.Nil(t, s.User())
}

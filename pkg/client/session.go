package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// sessionKey names the entry the session is kept under, mirroring the web
// client's local storage key.
const sessionKey = "user_session"

type storedSession struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}

// SessionStore persists the signed-in user in a small JSON file.
type SessionStore struct {
	path string
}

// NewSessionStore returns a store backed by the file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionPath is luxdrive/session.json under the user config directory.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "luxdrive", "session.json"), nil
}

// Path returns the backing file.
func (s *SessionStore) Path() string { return s.path }

// load returns nil, nil when nothing is stored.
func (s *SessionStore) load() (*storedSession, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]*storedSession
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	stored := doc[sessionKey]
	if stored != nil && stored.User == nil {
		return nil, errors.New("session has no user")
	}
	return stored, nil
}

func (s *SessionStore) save(stored *storedSession) error {
	raw, err := json.MarshalIndent(map[string]*storedSession{sessionKey: stored}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o600)
}

func (s *SessionStore) clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// AuthResult reports the outcome of a sign-in or sign-up. Error is nil on
// success and otherwise usually an *APIError.
type AuthResult struct {
	Error error
}

// Session tracks the signed-in user. It is restored from its store on creation
// and keeps the client's bearer token in step with the user.
type Session struct {
	client *Client
	store  *SessionStore
	logger *zap.Logger

	mu   sync.RWMutex
	user *User
}

// NewSession restores any stored session. An unreadable stored session is
// removed and the session starts signed out. logger may be nil.
func NewSession(client *Client, store *SessionStore, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{client: client, store: store, logger: logger}

	stored, err := store.load()
	if err != nil {
		logger.Warn("Discarding unreadable session", zap.String("path", store.Path()), zap.Error(err))
		if err := store.clear(); err != nil {
			logger.Warn("Failed to remove session file", zap.Error(err))
		}
		return s
	}
	if stored != nil {
		s.user = stored.User
		client.SetToken(stored.Token)
	}
	return s
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) SignIn(ctx context.Context, email, password string) AuthResult {
	resp, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return AuthResult{Error: err}
	}
	return AuthResult{Error: s.establish(resp)}
}

func (s *Session) SignUp(ctx context.Context, email, password string) AuthResult {
	resp, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return AuthResult{Error: err}
	}
	return AuthResult{Error: s.establish(resp)}
}

func (s *Session) establish(resp *AuthResponse) error {
	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.client.SetToken(resp.Token)

	if err := s.store.save(&storedSession{User: &user, Token: resp.Token}); err != nil {
		return fmt.Errorf("signed in but failed to save session: %w", err)
	}
	return nil
}

// SignOut forgets the user in memory and on disk.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.client.SetToken("")
	return s.store.clear()
}

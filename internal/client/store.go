package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"ai-calculator/internal/models"
)

const (
	KeyAuthToken   = "authToken"
	KeyCurrentUser = "currentUser"

	cookieLifetime = 7 * 24 * time.Hour
	sessionFile    = "session.json"
)

// Session is the signed-in user as kept by the store.
type Session struct {
	Token string
	User  models.Profile
}

type storedCookie struct {
	Value   string    `json:"value"`
	Path    string    `json:"path"`
	Expires time.Time `json:"expires"`
}

type storeData struct {
	Storage map[string]string       `json:"storage"`
	Cookies map[string]storedCookie `json:"cookies"`
}

// Store is the client's persistent storage: a key/value area plus a cookie
// jar, kept in one JSON file. It is the only place session state lives.
type Store struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewStore opens the store in the per-user config directory. CALC_CONFIG_DIR
// overrides the location.
func NewStore(getenv func(string) string) (*Store, error) {
	dir, err := configDir(getenv)
	if err != nil {
		return nil, err
	}
	return NewStoreAt(dir), nil
}

func NewStoreAt(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func configDir(getenv func(string) string) (string, error) {
	if dir := getenv("CALC_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "ai-calculator"), nil
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "ai-calculator"), nil
	default:
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "ai-calculator"), nil
	}
}

func (s *Store) Path() string {
	return filepath.Join(s.dir, sessionFile)
}

func (s *Store) load() (*storeData, error) {
	data := &storeData{Storage: map[string]string{}, Cookies: map[string]storedCookie{}}
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", sessionFile, err)
	}
	if data.Storage == nil {
		data.Storage = map[string]string{}
	}
	if data.Cookies == nil {
		data.Cookies = map[string]storedCookie{}
	}
	return data, nil
}

func (s *Store) save(data *storeData) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(), raw, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", sessionFile, err)
	}
	return nil
}

// Get returns a storage value.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data.Storage[key]
	return v, ok, nil
}

// Session returns the stored session or ErrNotAuthenticated.
func (s *Store) Session() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	token := data.Storage[KeyAuthToken]
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	sess := &Session{Token: token}
	if raw := data.Storage[KeyCurrentUser]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.User); err != nil {
			return nil, fmt.Errorf("stored user is corrupt: %w", err)
		}
	}
	return sess, nil
}

// SaveSession stores the token and user and sets the authToken cookie for
// seven days on path "/".
func (s *Store) SaveSession(sess Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	data.Storage[KeyAuthToken] = sess.Token
	data.Storage[KeyCurrentUser] = string(user)
	data.Cookies[KeyAuthToken] = storedCookie{Value: sess.Token, Path: "/", Expires: s.now().Add(cookieLifetime).UTC()}
	return s.save(data)
}

// Clear removes every stored key and cookie.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(&storeData{Storage: map[string]string{}, Cookies: map[string]storedCookie{}})
}

// Cookies returns the unexpired cookies to send with requests.
func (s *Store) Cookies() ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []*http.Cookie
	for name, c := range data.Cookies {
		if !c.Expires.IsZero() && !now.Before(c.Expires) {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	return out, nil
}

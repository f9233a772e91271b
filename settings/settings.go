package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// defaultFileName is the settings document name under the config home.
const defaultFileName = "kobodl.json"

// Service loads and stores the settings document. All mutations go
// through the caller; Save persists the current state atomically under an
// internal lock.
type Service struct {
	URL           string
	fs            afs.Service
	encryptionKey string

	mux       sync.Mutex
	Users     *UserList
	Downloads *Downloads
}

// document is the on-disk shape.
type document struct {
	Users     []*User             `json:"users"`
	Downloads map[string][]string `json:"books_by_user,omitempty"`
}

// New creates a settings service for the given afs URL; an empty URL
// selects the default config location. The document is loaded eagerly.
func New(ctx context.Context, URL string, options ...Option) (*Service, error) {
	if URL == "" {
		URL = DefaultURL()
	}
	ret := &Service{
		URL:       URL,
		fs:        afs.New(),
		Users:     &UserList{},
		Downloads: &Downloads{},
	}
	for _, opt := range options {
		opt(ret)
	}
	if err := ret.Load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// Load reads the settings document; a missing document yields empty state.
func (s *Service) Load(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if ok, _ := s.fs.Exists(ctx, s.URL); !ok {
		return nil
	}
	doc := &document{}
	if s.encryptionKey != "" {
		loaded, err := s.loadSecure(ctx)
		if err != nil {
			return err
		}
		doc = loaded
	} else {
		data, err := s.fs.DownloadWithURL(ctx, s.URL)
		if err != nil {
			return fmt.Errorf("failed to load settings %v: %w", s.URL, err)
		}
		if err = json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to parse settings %v: %w", s.URL, err)
		}
	}
	s.Users = &UserList{users: doc.Users}
	s.Downloads = &Downloads{byUser: doc.Downloads}
	return nil
}

// Save persists the current state.
func (s *Service) Save(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	doc := &document{Users: s.Users.All(), Downloads: s.Downloads.snapshot()}
	if s.encryptionKey != "" {
		return s.storeSecure(ctx, doc)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if err = s.fs.Upload(ctx, s.URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store settings %v: %w", s.URL, err)
	}
	return nil
}

// DefaultURL returns $XDG_CONFIG_HOME/kobodl.json, falling back to
// ~/.config/kobodl.json and finally the home directory itself.
func DefaultURL() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome != "" {
		if info, err := os.Stat(configHome); err == nil && info.IsDir() {
			return filepath.Join(configHome, defaultFileName)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultFileName
	}
	configDir := filepath.Join(home, ".config")
	if info, err := os.Stat(configDir); err == nil && info.IsDir() {
		return filepath.Join(configDir, defaultFileName)
	}
	return filepath.Join(home, defaultFileName)
}

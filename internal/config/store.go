package config

import "sync"

// Store guards the live configuration for concurrent access. The dashboard
// can replace the configuration at runtime; readers always see a complete
// snapshot, never a half-applied update.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore wraps a loaded configuration.
func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// Get returns the current configuration snapshot.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace validates, persists and swaps in a new configuration. The file
// path carries over from the current configuration.
func (s *Store) Replace(next *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next.path = s.cfg.path
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	if err := next.Save(); err != nil {
		return err
	}
	s.cfg = next
	return nil
}

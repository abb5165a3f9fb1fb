package config

import (
	"sync"
)

// Store caches the configuration in memory and re-persists it on every
// change. It is the only writer of the config file at runtime; everything
// else reads through Get.
type Store struct {
	mu       sync.RWMutex
	path     string
	cfg      *Config
	onChange []func(Config)
}

// NewStore loads the configuration from path and returns a store around
// it. A missing or corrupt file yields the defaults.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		cfg:  LoadFromPath(path),
	}
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Sync returns a copy of the current sync settings.
func (s *Store) Sync() SyncConfig {
	return s.Get().Sync
}

// Conflicts returns a copy of the current conflict settings.
func (s *Store) Conflicts() ConflictConfig {
	return s.Get().Conflicts
}

// UpdateSync applies a mutation to the sync settings, persists the result,
// and notifies change subscribers.
func (s *Store) UpdateSync(mutate func(*SyncConfig)) error {
	return s.update(func(c *Config) { mutate(&c.Sync) })
}

// UpdateConflicts applies a mutation to the conflict settings, persists
// the result, and notifies change subscribers.
func (s *Store) UpdateConflicts(mutate func(*ConflictConfig)) error {
	return s.update(func(c *Config) { mutate(&c.Conflicts) })
}

func (s *Store) update(mutate func(*Config)) error {
	s.mu.Lock()
	mutate(s.cfg)
	snapshot := *s.cfg
	subscribers := append([]func(Config){}, s.onChange...)
	err := s.cfg.SaveToPath(s.path)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return err
}

// OnChange registers a subscriber invoked after every successful update
// with the new configuration.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

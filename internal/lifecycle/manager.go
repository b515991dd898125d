package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/protcache/internal/store"
)

// State is the lifecycle position of the store file.
type State int

const (
	StateUnresolved State = iota
	StateCreated
	StateCommitted
	StateClosed
	StateDeleted
	StateRetained
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateCreated:
		return "created"
	case StateCommitted:
		return "committed"
	case StateClosed:
		return "closed"
	case StateDeleted:
		return "deleted"
	case StateRetained:
		return "retained"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Deletion defaults.
const (
	DefaultSettleDelay    = 500 * time.Millisecond
	DefaultRetryDelay     = time.Second
	DefaultDeleteAttempts = 3
)

// sidecarSuffixes are the SQLite companion files removed with the store.
var sidecarSuffixes = []string{"-journal", "-wal", "-shm"}

// ManagerConfig configures a Manager. Zero values select the defaults.
type ManagerConfig struct {
	// FileName is the store's base file name.
	FileName string

	// Retain keeps the file on disk at teardown.
	Retain bool

	Resolver *Resolver
	Logger   *slog.Logger

	// SettleDelay is waited after closing before the first delete attempt.
	SettleDelay time.Duration

	// RetryDelay is the base hold-off; attempt n waits n*RetryDelay after
	// failing.
	RetryDelay time.Duration

	// MaxAttempts bounds the delete attempts.
	MaxAttempts int

	// Sleep blocks for a duration. Defaults to time.Sleep.
	Sleep func(time.Duration)

	// Remove deletes a file. Defaults to os.Remove.
	Remove func(string) error
}

// Manager owns the store connection and its backing file across the
// ingest, read and teardown cycle.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	path  string
	store *store.Store
	state State
}

// NewManager applies defaults and returns a manager in StateUnresolved.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.FileName == "" {
		cfg.FileName = DefaultStoreFileName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewResolver(cfg.Logger)
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	} else if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultDeleteAttempts
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Remove == nil {
		cfg.Remove = os.Remove
	}
	return &Manager{cfg: cfg, logger: cfg.Logger}
}

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Path returns the resolved store path, or "" before resolution.
func (m *Manager) Path() string { return m.path }

// Store returns the open store, or nil.
func (m *Manager) Store() *store.Store { return m.store }

// Retain reports whether teardown keeps the file.
func (m *Manager) Retain() bool { return m.cfg.Retain }

// Resolve picks the store path if it has not been picked yet.
func (m *Manager) Resolve() string {
	if m.path == "" {
		m.path = m.cfg.Resolver.Resolve(m.cfg.FileName)
	}
	return m.path
}

// Open creates the store at the resolved path.
func (m *Manager) Open() (*store.Store, error) {
	if m.store != nil {
		return nil, fmt.Errorf("open store: already open in state %s", m.state)
	}
	path := m.Resolve()

	s, err := store.Create(path, m.logger)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	m.store = s
	m.state = StateCreated
	return s, nil
}

// MarkCommitted records that the bulk load committed.
func (m *Manager) MarkCommitted() {
	if m.state == StateCreated {
		m.state = StateCommitted
	}
}

// Close closes the connection, leaving the file on disk.
func (m *Manager) Close() error {
	return m.closeStore("close")
}

// Teardown closes the store and deletes the file unless Retain is set.
func (m *Manager) Teardown() bool {
	return m.Delete(false)
}

// Reset forgets the current path so the next Open resolves a fresh one.
// Call it after Delete(true).
func (m *Manager) Reset() {
	m.path = ""
	m.store = nil
	m.state = StateUnresolved
}

// Delete closes the connection and removes the store file, retrying with a
// linear hold-off while the file stays locked. force ignores Retain.
// It reports whether the file is gone; failure is logged as a warning only.
func (m *Manager) Delete(force bool) bool {
	_ = m.closeStore("delete")

	if m.path == "" {
		m.logger.Debug("store path is not defined; nothing to delete")
		return false
	}
	if !exists(m.path) {
		m.logger.Debug("store file doesn't exist; nothing to delete", "path", m.path)
		if m.state == StateClosed {
			m.state = StateDeleted
		}
		return true
	}

	m.cfg.Sleep(m.cfg.SettleDelay)

	if m.cfg.Retain && !force {
		m.logger.Debug("retain is set; not deleting store file", "path", m.path)
		m.state = StateRetained
		return false
	}

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		holdOff := time.Duration(attempt) * m.cfg.RetryDelay

		m.logger.Debug("deleting store file", "path", m.path, "attempt", attempt)
		err := m.cfg.Remove(m.path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			if attempt > 1 {
				m.logger.Info("store file now successfully deleted", "path", m.path, "attempt", attempt)
			}
			m.removeSidecars()
			m.state = StateDeleted
			return true
		}

		if attempt > 1 {
			m.logger.Warn("error deleting store file", "path", m.path, "attempt", attempt, "error", err)
			m.logger.Warn(fmt.Sprintf("waiting %s, then trying again", holdOff), "path", m.path)
		} else {
			m.logger.Debug("store file is busy", "path", m.path, "error", err)
		}

		_ = m.closeStore("retry")
		m.cfg.Sleep(holdOff)
	}

	if !exists(m.path) {
		m.logger.Info("store file now successfully deleted", "path", m.path)
		m.removeSidecars()
		m.state = StateDeleted
		return true
	}

	m.logger.Warn("unable to delete store file; leaving it in place", "path", m.path, "attempts", m.cfg.MaxAttempts)
	return false
}

func (m *Manager) removeSidecars() {
	for _, suffix := range sidecarSuffixes {
		p := m.path + suffix
		if !exists(p) {
			continue
		}
		if err := m.cfg.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("unable to delete store sidecar file", "path", p, "error", err)
		}
	}
}

// closeStore closes the connection; repeated calls are no-ops on the store
// and double as the release hint before each delete retry.
func (m *Manager) closeStore(caller string) error {
	if m.store == nil {
		return nil
	}
	m.logger.Debug("closing persistent SQLite connection", "caller", caller)
	err := m.store.Close()
	if err != nil {
		m.logger.Debug("error closing SQLite connection", "error", err)
	}
	if m.state == StateCreated || m.state == StateCommitted {
		m.state = StateClosed
	}
	return err
}

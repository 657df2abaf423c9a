package session

import (
	"context"
	"sort"
	"sync"
)

// ID identifies a started session. It is assigned by the transport and
// opaque to the manager.
type ID string

// Factory produces the configuration for a session rooted at a
// directory. A factory error leaves the registry untouched.
type Factory func(rootDir string) (Config, error)

// Handle is a live session as reported by the transport.
type Handle interface {
	// ID returns the session identifier.
	ID() ID

	// Root returns the session's root directory.
	Root() string

	// Alive reports whether the underlying process is still running.
	Alive() bool
}

// Transport starts sessions and resolves identifiers to live handles.
// Once Start returns a non-error ID, the transport guarantees the
// config's exit listeners eventually fire when the session terminates,
// by any cause; without that coupling a failed start would occupy its
// registry slot forever. Exit listeners must be invoked asynchronously,
// never from within Start.
type Transport interface {
	// Start launches a session and returns its identifier.
	Start(ctx context.Context, cfg Config) (ID, error)

	// Get resolves an identifier to a live handle. Terminated or
	// unknown identifiers report ok=false.
	Get(id ID) (Handle, bool)
}

// Manager is the factory-backed, key-deduplicated registry mapping root
// directory to session identifier. At most one session per root is ever
// under construction or alive from the manager's perspective.
type Manager struct {
	mu        sync.Mutex
	factory   Factory
	transport Transport
	sessions  map[string]ID
}

// NewManager creates a manager with the given factory and transport.
func NewManager(factory Factory, transport Transport) *Manager {
	return &Manager{
		factory:   factory,
		transport: transport,
		sessions:  make(map[string]ID),
	}
}

// Add returns the session for a root directory, constructing one if
// none exists. An empty root is a no-op returning the zero ID: a
// resolver that found no root must not spuriously create a session.
// When an entry already exists its identifier is returned unchanged and
// the factory is not invoked.
func (m *Manager) Add(ctx context.Context, rootDir string) (ID, error) {
	if rootDir == "" {
		return "", nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.sessions[rootDir]; ok {
		return id, nil
	}

	cfg, err := m.factory(rootDir)
	if err != nil {
		return "", &FactoryError{Root: rootDir, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return "", &FactoryError{Root: rootDir, Err: err}
	}

	cfg.Dir = rootDir
	cfg.prependExit(func() {
		m.evict(rootDir)
	})

	id, err := m.transport.Start(ctx, cfg)
	if err != nil {
		return "", &StartError{Root: rootDir, Err: err}
	}

	// The slot is reserved as soon as Start returns, which may be
	// before the backend has finished initializing.
	m.sessions[rootDir] = id
	return id, nil
}

// evict removes the entry for a root. It runs as the first exit
// listener of every session the manager starts.
func (m *Manager) evict(rootDir string) {
	m.mu.Lock()
	delete(m.sessions, rootDir)
	m.mu.Unlock()
}

// Get returns the session identifier recorded for a root, if any.
func (m *Manager) Get(rootDir string) (ID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[rootDir]
	return id, ok
}

// Roots returns the root directories with recorded sessions, sorted.
func (m *Manager) Roots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	roots := make([]string, 0, len(m.sessions))
	for r := range m.sessions {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}

// Count returns the number of recorded sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Clients returns handles for all currently live sessions. Identifiers
// the transport no longer recognizes are silently omitted; they belong
// to sessions whose cleanup has not fired yet.
func (m *Manager) Clients() []Handle {
	m.mu.Lock()
	ids := make([]ID, 0, len(m.sessions))
	for _, id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	handles := make([]Handle, 0, len(ids))
	for _, id := range ids {
		if h, ok := m.transport.Get(id); ok {
			handles = append(handles, h)
		}
	}
	return handles
}

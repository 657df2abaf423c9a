package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeHandle implements Handle for tests.
type fakeHandle struct {
	id    ID
	root  string
	alive bool
}

func (h *fakeHandle) ID() ID       { return h.id }
func (h *fakeHandle) Root() string { return h.root }
func (h *fakeHandle) Alive() bool  { return h.alive }

// fakeTransport implements Transport with in-memory sessions. Exit is
// simulated by calling exit(id) from the test, mirroring asynchronous
// delivery.
type fakeTransport struct {
	next     int
	startErr error
	sessions map[ID]*fakeHandle
	exits    map[ID][]func()
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sessions: make(map[ID]*fakeHandle),
		exits:    make(map[ID][]func()),
	}
}

func (t *fakeTransport) Start(_ context.Context, cfg Config) (ID, error) {
	if t.startErr != nil {
		return "", t.startErr
	}
	t.next++
	id := ID(fmt.Sprintf("session-%d", t.next))
	t.sessions[id] = &fakeHandle{id: id, root: cfg.Dir, alive: true}
	t.exits[id] = cfg.ExitListeners()
	return id, nil
}

func (t *fakeTransport) Get(id ID) (Handle, bool) {
	h, ok := t.sessions[id]
	if !ok {
		return nil, false
	}
	return h, true
}

// exit simulates session termination: the transport forgets the
// session and fires its exit listeners in order.
func (t *fakeTransport) exit(id ID) {
	listeners := t.exits[id]
	delete(t.sessions, id)
	delete(t.exits, id)
	for _, fn := range listeners {
		fn()
	}
}

func commandFactory(t *testing.T, calls *int) Factory {
	t.Helper()
	return func(rootDir string) (Config, error) {
		*calls++
		return Config{Command: "backendd"}, nil
	}
}

func TestManager_AddDeduplicates(t *testing.T) {
	calls := 0
	tr := newFakeTransport()
	m := NewManager(commandFactory(t, &calls), tr)

	id1, err := m.Add(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	id2, err := m.Add(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if id1 == "" || id1 != id2 {
		t.Errorf("ids = (%q, %q), want identical non-empty", id1, id2)
	}
	if calls != 1 {
		t.Errorf("factory invoked %d times, want exactly 1", calls)
	}
}

func TestManager_AddEmptyRootIsNoOp(t *testing.T) {
	calls := 0
	tr := newFakeTransport()
	m := NewManager(commandFactory(t, &calls), tr)

	id, err := m.Add(context.Background(), "")
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want zero", id)
	}
	if calls != 0 {
		t.Errorf("factory invoked %d times, want 0", calls)
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d, want 0", m.Count())
	}
}

func TestManager_ExitEvictsAndAddRebuilds(t *testing.T) {
	calls := 0
	tr := newFakeTransport()
	m := NewManager(commandFactory(t, &calls), tr)

	id1, err := m.Add(context.Background(), "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Clients()) != 1 {
		t.Fatalf("Clients = %d, want 1", len(m.Clients()))
	}

	tr.exit(id1)

	if len(m.Clients()) != 0 {
		t.Errorf("Clients = %d after exit, want 0", len(m.Clients()))
	}
	if _, ok := m.Get("/proj"); ok {
		t.Error("entry survived exit")
	}

	id2, err := m.Add(context.Background(), "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if id2 == id1 {
		t.Error("exited session was resurrected; want a brand-new session")
	}
	if calls != 2 {
		t.Errorf("factory invoked %d times, want 2", calls)
	}
}

func TestManager_FactoryErrorLeavesStateUnchanged(t *testing.T) {
	boom := errors.New("missing command")
	tr := newFakeTransport()
	m := NewManager(func(string) (Config, error) {
		return Config{}, boom
	}, tr)

	_, err := m.Add(context.Background(), "/proj")

	var fe *FactoryError
	if !errors.As(err, &fe) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want FactoryError wrapping %v", err, boom)
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d after factory fault, want 0", m.Count())
	}
}

func TestManager_InvalidConfigFailsFast(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(func(string) (Config, error) {
		return Config{}, nil // no command
	}, tr)

	_, err := m.Add(context.Background(), "/proj")
	if !errors.Is(err, ErrNoCommand) {
		t.Errorf("err = %v, want ErrNoCommand", err)
	}
	if m.Count() != 0 {
		t.Error("registry gained an entry from a failed factory")
	}
}

func TestManager_StartErrorLeavesStateUnchanged(t *testing.T) {
	tr := newFakeTransport()
	tr.startErr = errors.New("spawn failed")
	m := NewManager(func(string) (Config, error) {
		return Config{Command: "backendd"}, nil
	}, tr)

	_, err := m.Add(context.Background(), "/proj")

	var se *StartError
	if !errors.As(err, &se) {
		t.Errorf("err = %v, want StartError", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d after start fault, want 0", m.Count())
	}
}

func TestManager_CleanupRunsBeforeFactoryListener(t *testing.T) {
	var order []string
	tr := newFakeTransport()

	var m *Manager
	m = NewManager(func(rootDir string) (Config, error) {
		cfg := Config{Command: "backendd"}
		cfg.OnExit(func() {
			// By the time factory-supplied exit logic runs, the
			// manager entry is already gone.
			if _, ok := m.Get(rootDir); ok {
				t.Error("manager cleanup did not run before factory listener")
			}
			order = append(order, "factory")
		})
		return cfg, nil
	}, tr)

	id, err := m.Add(context.Background(), "/proj")
	if err != nil {
		t.Fatal(err)
	}

	tr.exit(id)

	if len(order) != 1 || order[0] != "factory" {
		t.Errorf("order = %v, want the factory listener to have run", order)
	}
}

func TestManager_SeparateRootsSeparateSessions(t *testing.T) {
	calls := 0
	tr := newFakeTransport()
	m := NewManager(commandFactory(t, &calls), tr)

	id1, _ := m.Add(context.Background(), "/proj1")
	id2, _ := m.Add(context.Background(), "/proj2")

	if id1 == id2 {
		t.Error("distinct roots shared a session")
	}
	if calls != 2 {
		t.Errorf("factory invoked %d times, want 2", calls)
	}

	roots := m.Roots()
	if len(roots) != 2 || roots[0] != "/proj1" || roots[1] != "/proj2" {
		t.Errorf("Roots = %v", roots)
	}
}

func TestManager_ClientsFiltersUnknownIDs(t *testing.T) {
	calls := 0
	tr := newFakeTransport()
	m := NewManager(commandFactory(t, &calls), tr)

	id, _ := m.Add(context.Background(), "/proj")

	// Simulate delayed cleanup: the transport forgot the session but
	// the exit listeners have not fired yet.
	delete(tr.sessions, id)

	if got := m.Clients(); len(got) != 0 {
		t.Errorf("Clients = %d, want stale identifier silently omitted", len(got))
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1: entry is removed by cleanup, not by Clients", m.Count())
	}
}

func TestConfig_ExitListenerOrder(t *testing.T) {
	var cfg Config
	var order []int
	cfg.OnExit(func() { order = append(order, 1) })
	cfg.OnExit(func() { order = append(order, 2) })
	cfg.prependExit(func() { order = append(order, 0) })

	for _, fn := range cfg.ExitListeners() {
		fn()
	}

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("order = %v, want [0 1 2]", order)
	}
}

func TestConfig_OnExitNil(t *testing.T) {
	var cfg Config
	cfg.OnExit(nil)
	if len(cfg.ExitListeners()) != 0 {
		t.Error("nil listener was registered")
	}
}

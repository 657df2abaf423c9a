package session

// Config describes how to start one backend session. It is produced by
// a Factory, augmented by the Manager (root directory, cleanup
// listener), and consumed by a Transport.
type Config struct {
	// Command is the executable to run.
	Command string

	// Args are command-line arguments.
	Args []string

	// Env are additional environment variables.
	Env map[string]string

	// Dir is the session's root directory. Set by the Manager; a
	// factory-supplied value is overwritten.
	Dir string

	// Settings is an opaque JSON blob of backend settings.
	Settings string

	exitListeners []func()
}

// OnExit registers a listener invoked when the session terminates, by
// any cause. Listeners run in registration order.
func (c *Config) OnExit(fn func()) {
	if fn != nil {
		c.exitListeners = append(c.exitListeners, fn)
	}
}

// ExitListeners returns the registered listeners in invocation order.
func (c *Config) ExitListeners() []func() {
	out := make([]func(), len(c.exitListeners))
	copy(out, c.exitListeners)
	return out
}

// prependExit inserts a listener ahead of all registered ones. The
// manager uses it so cache cleanup always runs before factory-supplied
// exit logic.
func (c *Config) prependExit(fn func()) {
	c.exitListeners = append([]func(){fn}, c.exitListeners...)
}

// Validate reports whether the config is startable.
func (c *Config) Validate() error {
	if c.Command == "" {
		return ErrNoCommand
	}
	return nil
}

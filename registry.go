package fluentdb

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// DefaultInstance is the name used by callers that keep a single connection.
const DefaultInstance = "default"

// Registry holds named Clients so that every part of a program asking for
// the same name shares one connection. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	opts    []Option
	log     *slog.Logger
	entries map[string]*Client
}

// NewRegistry returns an empty Registry. opts are applied to every Client it
// creates.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		opts:    opts,
		entries: make(map[string]*Client),
	}
	r.log = newOptions(opts).log
	return r
}

// GetInstance returns the Client registered under name, creating it from
// settings on first use. Settings passed for an existing name are ignored.
// Creating without settings fails with ErrMissingSettings.
func (r *Registry) GetInstance(name string, settings ...Settings) (*Client, error) {
	if name == "" {
		name = DefaultInstance
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.entries[name]; ok {
		return c, nil
	}
	if len(settings) == 0 {
		r.log.Error("Database Instance Error", "instance", name, "error", ErrMissingSettings)
		return nil, ErrMissingSettings
	}
	c, err := New(settings[0], r.opts...)
	if err != nil {
		r.log.Error("Database Instance Error", "instance", name, "error", err)
		return nil, err
	}
	r.entries[name] = c
	r.log.Debug("Database Instance Created", "instance", name, "client", c.ID().String())
	return c, nil
}

// CloseInstance closes and forgets the Client registered under name. A later
// GetInstance with settings creates a fresh one. Unknown names are a no-op.
func (r *Registry) CloseInstance(name string) error {
	if name == "" {
		name = DefaultInstance
	}
	r.mu.Lock()
	c, ok := r.entries[name]
	delete(r.entries, name)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		r.log.Error("Database Instance Close Error", "instance", name, "error", err)
		return err
	}
	r.log.Debug("Database Instance Closed", "instance", name)
	return nil
}

// CloseAll closes every registered Client and empties the Registry.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Client)
	r.mu.Unlock()

	var errs []error
	for name, c := range entries {
		if err := c.Close(); err != nil {
			r.log.Error("Database Instance Close Error", "instance", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names lists the registered instance names in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/gosuda/hookcord/internal/interaction"
)

// ComponentCallback handles a dispatched message component click. args maps
// the registered parameter names to the decoded custom id arguments.
type ComponentCallback func(ctx context.Context, i *interaction.Component, args map[string]string) error

// ComponentConfig declares a component handler at registration time.
type ComponentConfig struct {
	Name string

	// Params are the ordered argument names carried by the custom id.
	// Dispatch rejects clicks whose decoded argument count differs.
	Params []string

	AckBehavior AckBehavior
}

// Component is a registered component handler.
type Component struct {
	Name        string
	Params      []string
	AckBehavior AckBehavior
	Callback    ComponentCallback
}

// BindArgs maps decoded custom id arguments onto the registered parameter
// names, failing with ErrComponentArity when the counts differ.
func (c *Component) BindArgs(args []string) (map[string]string, error) {
	if len(args) != len(c.Params) {
		return nil, fmt.Errorf("command: component %q: got %d args, registered %d: %w",
			c.Name, len(args), len(c.Params), ErrComponentArity)
	}

	bound := make(map[string]string, len(args))
	for i, p := range c.Params {
		bound[p] = args[i]
	}

	return bound, nil
}

// ComponentRegistry maps decoded custom id names to component handlers.
// Structurally identical to Registry, keyed by custom id name instead.
type ComponentRegistry struct {
	mu         sync.RWMutex
	components map[string]*Component
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{components: make(map[string]*Component)}
}

// Register validates and stores a component handler. Last write wins.
func (r *ComponentRegistry) Register(cfg ComponentConfig, cb ComponentCallback) (*Component, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("command.ComponentRegistry.Register: %w: name must not be empty", ErrConfiguration)
	}
	if cb == nil {
		return nil, fmt.Errorf("command.ComponentRegistry.Register(%q): %w: callback must not be nil", cfg.Name, ErrConfiguration)
	}
	if cfg.AckBehavior < AckManual || cfg.AckBehavior > AckAutoUpdate {
		return nil, fmt.Errorf("command.ComponentRegistry.Register(%q): %w: invalid ack behavior %d", cfg.Name, ErrConfiguration, cfg.AckBehavior)
	}

	comp := &Component{
		Name:        cfg.Name,
		Params:      cfg.Params,
		AckBehavior: cfg.AckBehavior,
		Callback:    cb,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[cfg.Name] = comp

	return comp, nil
}

// Resolve looks up a component handler by decoded custom id name.
func (r *ComponentRegistry) Resolve(name string) (*Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	comp, ok := r.components[name]
	return comp, ok
}

// CustomID renders the custom id that routes a rendered component back to
// the named handler. Prefer this over hand-building ids: it encodes the
// arguments so the separator stays unambiguous.
func (r *ComponentRegistry) CustomID(name string, args ...string) string {
	return EncodeCustomID(name, args...)
}

// ModalCallback handles a submitted modal.
type ModalCallback func(ctx context.Context, i *interaction.ModalSubmit, args map[string]string) error

// ModalConfig declares a modal handler. Modal submissions cannot be
// deferred by the platform, so acknowledgement is always manual.
type ModalConfig struct {
	Name   string
	Params []string
}

// Modal is a registered modal handler.
type Modal struct {
	Name     string
	Params   []string
	Callback ModalCallback
}

// BindArgs maps decoded custom id arguments onto the registered parameter
// names, failing with ErrComponentArity when the counts differ.
func (m *Modal) BindArgs(args []string) (map[string]string, error) {
	if len(args) != len(m.Params) {
		return nil, fmt.Errorf("command: modal %q: got %d args, registered %d: %w",
			m.Name, len(args), len(m.Params), ErrComponentArity)
	}

	bound := make(map[string]string, len(args))
	for i, p := range m.Params {
		bound[p] = args[i]
	}

	return bound, nil
}

// ModalRegistry maps decoded custom id names to modal handlers.
type ModalRegistry struct {
	mu     sync.RWMutex
	modals map[string]*Modal
}

// NewModalRegistry creates an empty modal registry.
func NewModalRegistry() *ModalRegistry {
	return &ModalRegistry{modals: make(map[string]*Modal)}
}

// Register validates and stores a modal handler. Last write wins.
func (r *ModalRegistry) Register(cfg ModalConfig, cb ModalCallback) (*Modal, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("command.ModalRegistry.Register: %w: name must not be empty", ErrConfiguration)
	}
	if cb == nil {
		return nil, fmt.Errorf("command.ModalRegistry.Register(%q): %w: callback must not be nil", cfg.Name, ErrConfiguration)
	}

	m := &Modal{Name: cfg.Name, Params: cfg.Params, Callback: cb}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modals[cfg.Name] = m

	return m, nil
}

// Resolve looks up a modal handler by decoded custom id name.
func (r *ModalRegistry) Resolve(name string) (*Modal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modals[name]
	return m, ok
}

// CustomID renders the custom id for a modal routed to the named handler.
func (r *ModalRegistry) CustomID(name string, args ...string) string {
	return EncodeCustomID(name, args...)
}

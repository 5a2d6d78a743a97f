// Package command holds the registries that map command names and component
// custom ids to registered handlers and their acknowledgement policies.
// Registries are populated at startup and read-mostly afterwards, so they
// are safe to share by reference across all interaction tasks.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/interaction"
	"github.com/gosuda/hookcord/internal/option"
)

// Registration and dispatch errors.
var (
	ErrConfiguration  = errors.New("command: invalid configuration")
	ErrComponentArity = errors.New("command: custom id argument count differs from registered arity")
)

// AckBehavior selects how the dispatch engine acknowledges an interaction
// when the callback has not responded before the deadline.
type AckBehavior int

const (
	// AckManual leaves acknowledgement entirely to the callback. Required
	// for modal responses, which the platform refuses to defer.
	AckManual AckBehavior = iota - 1
	// AckAuto defers non-ephemerally when the deadline expires.
	AckAuto
	// AckAutoEphemeral defers ephemerally when the deadline expires.
	AckAutoEphemeral
	// AckAutoUpdate (components only) defers as a message update, showing
	// no loading state.
	AckAutoUpdate
)

// Callback handles a dispatched command. Errors are logged by the engine
// and never influence the HTTP response path.
type Callback func(ctx context.Context, i *interaction.Command, opts option.Resolved) error

// AutocompleteCallback produces choices for a focused option.
type AutocompleteCallback func(ctx context.Context, i *interaction.Autocomplete, focused string, opts option.Resolved) error

// Config declares a command at registration time.
type Config struct {
	Name        string
	Description string
	Options     []option.Descriptor
	AckBehavior AckBehavior
}

// Command is a registered command. Immutable after registration; the
// registry may replace it wholesale on re-registration.
type Command struct {
	Name        string
	Description string
	Options     []option.Descriptor
	AckBehavior AckBehavior

	Callback     Callback
	Autocomplete AutocompleteCallback

	wire        []discord.ApplicationCommandOption
	anyRequired bool
}

// RequiresOptions reports whether any declared option is required.
func (c *Command) RequiresOptions() bool { return c.anyRequired }

// Registry maps command names to registered commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	order    []string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register validates and stores a command. Duplicate names overwrite the
// previous registration (last write wins, matching the platform's own
// upsert semantics). Configuration mistakes fail here, before deployment,
// never at dispatch time.
func (r *Registry) Register(cfg Config, cb Callback, autocomplete ...AutocompleteCallback) (*Command, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("command.Registry.Register: %w: name must not be empty", ErrConfiguration)
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("command.Registry.Register(%q): %w: description must not be empty", cfg.Name, ErrConfiguration)
	}
	if cb == nil {
		return nil, fmt.Errorf("command.Registry.Register(%q): %w: callback must not be nil", cfg.Name, ErrConfiguration)
	}
	if cfg.AckBehavior < AckManual || cfg.AckBehavior > AckAutoEphemeral {
		return nil, fmt.Errorf("command.Registry.Register(%q): %w: invalid ack behavior %d", cfg.Name, ErrConfiguration, cfg.AckBehavior)
	}

	if err := option.ValidateSchema(cfg.Options); err != nil {
		return nil, fmt.Errorf("command.Registry.Register(%q): %w: %v", cfg.Name, ErrConfiguration, err)
	}

	var accb AutocompleteCallback
	if len(autocomplete) > 0 {
		accb = autocomplete[0]
	}
	if option.AnyAutocomplete(cfg.Options) != (accb != nil) {
		return nil, fmt.Errorf(
			"command.Registry.Register(%q): %w: autocomplete callback must be present exactly when an option declares autocomplete",
			cfg.Name, ErrConfiguration,
		)
	}

	cmd := &Command{
		Name:         cfg.Name,
		Description:  cfg.Description,
		Options:      cfg.Options,
		AckBehavior:  cfg.AckBehavior,
		Callback:     cb,
		Autocomplete: accb,
		wire:         option.EncodeSchema(cfg.Options),
		anyRequired:  option.AnyRequired(cfg.Options),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cfg.Name]; !exists {
		r.order = append(r.order, cfg.Name)
	}
	r.commands[cfg.Name] = cmd

	return cmd, nil
}

// Resolve looks up a command by name.
func (r *Registry) Resolve(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// WireConfig projects the registry into the platform's registration format,
// in registration order. Pure projection for the registration collaborator;
// no side effects.
func (r *Registry) WireConfig() []discord.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]discord.ApplicationCommand, 0, len(r.order))
	for _, name := range r.order {
		cmd := r.commands[name]
		out = append(out, discord.ApplicationCommand{
			Name:        cmd.Name,
			Type:        1,
			Description: cmd.Description,
			Options:     cmd.wire,
		})
	}

	return out
}

// Package engine classifies inbound interaction events, resolves them
// against the registries and races the user callback against a
// deadline-driven auto-acknowledgement so that exactly one valid HTTP
// response body is produced per event.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/gosuda/hookcord/internal/command"
	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/interaction"
	"github.com/gosuda/hookcord/internal/option"
	"github.com/gosuda/hookcord/internal/rest"
)

// ErrMalformedEvent is returned when the inbound body is not a decodable
// interaction event. The transport should answer 400.
var ErrMalformedEvent = errors.New("engine: malformed interaction event")

// Default deadlines. The platform times the whole exchange out at 3 s;
// deferring at 1500 ms leaves headroom for the response to travel.
// Autocomplete cannot be deferred, so its fallback is a conservative
// empty choice list well below the platform cutoff.
const (
	DefaultAckTimeout          = 1500 * time.Millisecond
	DefaultAutocompleteTimeout = 10 * time.Second
)

// Engine dispatches inbound interaction events.
type Engine struct {
	commands   *command.Registry
	components *command.ComponentRegistry
	modals     *command.ModalRegistry
	rest       *rest.Client
	entities   option.EntitySource

	ackTimeout          time.Duration
	autocompleteTimeout time.Duration
	log                 zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAckTimeout overrides the auto-acknowledgement deadline.
func WithAckTimeout(d time.Duration) Option {
	return func(e *Engine) { e.ackTimeout = d }
}

// WithAutocompleteTimeout overrides the autocomplete fallback deadline.
func WithAutocompleteTimeout(d time.Duration) Option {
	return func(e *Engine) { e.autocompleteTimeout = d }
}

// WithEntitySource sets the cache collaborator used to hydrate
// reference-typed options missing from the resolved snapshot.
func WithEntitySource(src option.EntitySource) Option {
	return func(e *Engine) { e.entities = src }
}

// WithLogger overrides the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine over the given registries and REST client.
func New(commands *command.Registry, components *command.ComponentRegistry, modals *command.ModalRegistry, rc *rest.Client, opts ...Option) *Engine {
	e := &Engine{
		commands:            commands,
		components:          components,
		modals:              modals,
		rest:                rc,
		ackTimeout:          DefaultAckTimeout,
		autocompleteTimeout: DefaultAutocompleteTimeout,
		log:                 log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one verified inbound event and returns the single JSON
// body to write back. It only errors on undecodable payloads; every
// dispatch-level failure is converted into a valid interaction response.
func (e *Engine) Handle(ctx context.Context, raw []byte) (*discord.InteractionResponse, error) {
	kind := gjson.GetBytes(raw, "type")
	if !kind.Exists() {
		return nil, fmt.Errorf("%w: missing type field", ErrMalformedEvent)
	}

	// Pings bypass the registries entirely; no deadline race is needed.
	if discord.InteractionType(kind.Int()) == discord.InteractionTypePing {
		return &discord.InteractionResponse{Type: discord.ResponseTypePong}, nil
	}

	var ev discord.Interaction
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	logger := e.log.With().
		Str("trace_id", uuid.NewString()).
		Str("interaction_id", ev.ID).
		Int("type", int(ev.Type)).
		Logger()

	switch ev.Type {
	case discord.InteractionTypeApplicationCommand:
		return e.handleCommand(ctx, logger, &ev)
	case discord.InteractionTypeAutocomplete:
		return e.handleAutocomplete(ctx, logger, &ev)
	case discord.InteractionTypeMessageComponent:
		return e.handleComponent(ctx, logger, &ev)
	case discord.InteractionTypeModalSubmit:
		return e.handleModal(ctx, logger, &ev)
	default:
		logger.Warn().Msg("unknown interaction type")
		return errorBody("hookcord: unknown interaction type"), nil
	}
}

func (e *Engine) handleCommand(ctx context.Context, logger zerolog.Logger, ev *discord.Interaction) (*discord.InteractionResponse, error) {
	var data discord.CommandData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: command data: %v", ErrMalformedEvent, err)
	}

	cmd, ok := e.commands.Resolve(data.Name)
	if !ok {
		// Fail fast: unlike a slow callback, an unregistered name can
		// never succeed later.
		logger.Warn().Str("command", data.Name).Msg("unknown command")
		return errorBody("hookcord: unknown command"), nil
	}

	ci := interaction.NewCommand(e.rest, ev, &data)

	opts, err := option.Decode(ctx, ci.Options, cmd.Options, data.Resolved, e.entities, true)
	if err != nil {
		logger.Warn().Err(err).Str("command", data.Name).Msg("option decode failed")
		return errorBody("hookcord: invalid options"), nil
	}

	cbctx := context.WithoutCancel(ctx)
	e.spawn(logger, func() error { return cmd.Callback(cbctx, ci, opts) })

	if cmd.AckBehavior != command.AckManual {
		ephemeral := cmd.AckBehavior == command.AckAutoEphemeral
		timer := time.AfterFunc(e.ackTimeout, func() { ci.Defer(ephemeral) })
		defer timer.Stop()
	}

	return ci.AwaitResponse(ctx)
}

func (e *Engine) handleAutocomplete(ctx context.Context, logger zerolog.Logger, ev *discord.Interaction) (*discord.InteractionResponse, error) {
	var data discord.CommandData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: autocomplete data: %v", ErrMalformedEvent, err)
	}

	cmd, ok := e.commands.Resolve(data.Name)
	if !ok || cmd.Autocomplete == nil {
		logger.Warn().Str("command", data.Name).Msg("autocomplete for unknown command")
		return emptyChoices(), nil
	}

	ai := interaction.NewAutocomplete(e.rest, ev, &data)

	// Lenient decode: partially filled forms are the normal case here.
	opts, err := option.Decode(ctx, ai.Options, cmd.Options, data.Resolved, e.entities, false)
	if err != nil {
		logger.Warn().Err(err).Str("command", data.Name).Msg("autocomplete option decode failed")
		return emptyChoices(), nil
	}

	focused, ok := option.FindFocused(ai.Options)
	if !ok {
		return emptyChoices(), nil
	}

	cbctx := context.WithoutCancel(ctx)
	e.spawn(logger, func() error { return cmd.Autocomplete(cbctx, ai, focused, opts) })

	timer := time.AfterFunc(e.autocompleteTimeout, func() { ai.RespondChoices(nil) })
	defer timer.Stop()

	return ai.AwaitResponse(ctx)
}

func (e *Engine) handleComponent(ctx context.Context, logger zerolog.Logger, ev *discord.Interaction) (*discord.InteractionResponse, error) {
	var data discord.ComponentData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: component data: %v", ErrMalformedEvent, err)
	}

	name, args, err := command.DecodeCustomID(data.CustomID)
	if err != nil {
		logger.Warn().Err(err).Msg("undecodable custom id")
		return errorBody("hookcord: unknown component"), nil
	}

	comp, ok := e.components.Resolve(name)
	if !ok {
		logger.Warn().Str("component", name).Msg("unknown component")
		return errorBody("hookcord: unknown component"), nil
	}

	bound, err := comp.BindArgs(args)
	if err != nil {
		logger.Warn().Err(err).Str("component", name).Msg("component arity mismatch")
		return errorBody("hookcord: mismatch between registered and given params"), nil
	}

	ci := interaction.NewComponent(e.rest, ev, &data, name, args)

	cbctx := context.WithoutCancel(ctx)
	e.spawn(logger, func() error { return comp.Callback(cbctx, ci, bound) })

	switch comp.AckBehavior {
	case command.AckManual:
		// Caller acknowledges; nothing to arm.
	case command.AckAutoUpdate:
		timer := time.AfterFunc(e.ackTimeout, ci.DeferUpdate)
		defer timer.Stop()
	default:
		ephemeral := comp.AckBehavior == command.AckAutoEphemeral
		timer := time.AfterFunc(e.ackTimeout, func() { ci.Defer(ephemeral) })
		defer timer.Stop()
	}

	return ci.AwaitResponse(ctx)
}

func (e *Engine) handleModal(ctx context.Context, logger zerolog.Logger, ev *discord.Interaction) (*discord.InteractionResponse, error) {
	var data discord.ModalData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: modal data: %v", ErrMalformedEvent, err)
	}

	name, args, err := command.DecodeCustomID(data.CustomID)
	if err != nil {
		logger.Warn().Err(err).Msg("undecodable modal custom id")
		return errorBody("hookcord: unknown modal"), nil
	}

	m, ok := e.modals.Resolve(name)
	if !ok {
		logger.Warn().Str("modal", name).Msg("unknown modal")
		return errorBody("hookcord: unknown modal"), nil
	}

	bound, err := m.BindArgs(args)
	if err != nil {
		logger.Warn().Err(err).Str("modal", name).Msg("modal arity mismatch")
		return errorBody("hookcord: mismatch between registered and given params"), nil
	}

	mi := interaction.NewModalSubmit(e.rest, ev, &data, name, args)

	// Modal submissions cannot be deferred, so acknowledgement is always
	// manual: the callback must respond before the platform gives up.
	cbctx := context.WithoutCancel(ctx)
	e.spawn(logger, func() error { return m.Callback(cbctx, mi, bound) })

	return mi.AwaitResponse(ctx)
}

// spawn runs a callback without awaiting it. Callback errors and panics
// never reach the response path; the deadline fallback keeps the response
// guarantee even when the callback dies immediately.
func (e *Engine) spawn(logger zerolog.Logger, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("callback panicked")
			}
		}()
		if err := fn(); err != nil {
			logger.Error().Err(err).Msg("callback failed")
		}
	}()
}

// errorBody is the fixed ephemeral error response. The exact wording is
// policy, not contract; only the type and flags matter.
func errorBody(content string) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseTypeChannelMessage,
		Data: &discord.ResponseData{
			Content: content,
			Flags:   discord.MessageFlagEphemeral,
		},
	}
}

func emptyChoices() *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseTypeAutocompleteResult,
		Data: &discord.ResponseData{Choices: []discord.Choice{}},
	}
}

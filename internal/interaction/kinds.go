package interaction

import (
	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/rest"
)

// Command is an application command (slash command) interaction.
type Command struct {
	Interaction

	CommandID   string
	CommandName string
	CommandType int

	// Subcommand is the flattened subcommand name, empty for plain commands.
	Subcommand string

	// Options are the basic options after subcommand flattening.
	Options  []discord.CommandOption
	Resolved *discord.ResolvedData
}

// NewCommand wraps an application command event. Single subcommand and
// subcommand-group chains are flattened so callbacks always see basic
// options.
func NewCommand(rc *rest.Client, ev *discord.Interaction, data *discord.CommandData) *Command {
	name, opts := flattenSubcommand(data.Name, data.Options)

	c := &Command{
		Interaction: newBase(rc, ev),
		CommandID:   data.ID,
		CommandName: data.Name,
		CommandType: data.Type,
		Options:     opts,
		Resolved:    data.Resolved,
	}
	if name != data.Name {
		c.Subcommand = name
	}

	return c
}

// Component is a message component (button or select menu) interaction.
type Component struct {
	Interaction

	CustomID      string
	ComponentType discord.ComponentType

	// Values holds the selection of a select menu, nil for buttons.
	Values []string

	// Name and Args are the decoded segments of the custom id.
	Name string
	Args []string
}

// NewComponent wraps a message component event with its decoded custom id.
func NewComponent(rc *rest.Client, ev *discord.Interaction, data *discord.ComponentData, name string, args []string) *Component {
	return &Component{
		Interaction:   newBase(rc, ev),
		CustomID:      data.CustomID,
		ComponentType: data.ComponentType,
		Values:        data.Values,
		Name:          name,
		Args:          args,
	}
}

// IsButton reports whether the component is a button.
func (c *Component) IsButton() bool {
	return c.ComponentType == discord.ComponentTypeButton
}

// IsSelectMenu reports whether the component is a select menu.
func (c *Component) IsSelectMenu() bool {
	return c.ComponentType == discord.ComponentTypeSelectMenu
}

// DeferUpdate acknowledges the component without a visible loading state;
// the message the component is attached to stays untouched until edited.
// Idempotent like Defer.
func (c *Component) DeferUpdate() {
	c.ack.mu.Lock()
	defer c.ack.mu.Unlock()

	if c.ack.phase != PhaseUnacknowledged {
		return
	}

	c.ack.phase = PhaseDeferred
	c.ack.latchEphemeral(false)
	c.ack.setResponse(&discord.InteractionResponse{
		Type: discord.ResponseTypeDeferredMessageUpdate,
	})
}

// Update replaces the message the component is attached to. Only legal as
// the first response; use Respond afterwards.
func (c *Component) Update(data *discord.ResponseData) error {
	c.ack.mu.Lock()
	defer c.ack.mu.Unlock()

	if c.ack.phase != PhaseUnacknowledged {
		return ErrInvalidState
	}

	c.ack.phase = PhaseReplied
	c.ack.latchEphemeral(false)
	c.ack.setResponse(&discord.InteractionResponse{
		Type: discord.ResponseTypeUpdateMessage,
		Data: data,
	})

	return nil
}

// Autocomplete is an autocomplete query for a command option.
type Autocomplete struct {
	Interaction

	CommandID   string
	CommandName string
	Subcommand  string

	// Options are the partially filled basic options after flattening.
	Options []discord.CommandOption
}

// NewAutocomplete wraps an autocomplete event.
func NewAutocomplete(rc *rest.Client, ev *discord.Interaction, data *discord.CommandData) *Autocomplete {
	name, opts := flattenSubcommand(data.Name, data.Options)

	a := &Autocomplete{
		Interaction: newBase(rc, ev),
		CommandID:   data.ID,
		CommandName: data.Name,
		Options:     opts,
	}
	if name != data.Name {
		a.Subcommand = name
	}

	return a
}

// RespondChoices stages the choice list as the HTTP response. Autocomplete
// interactions cannot be deferred, so the first call wins and later calls
// are no-ops; the engine uses that to race a conservative empty-list
// fallback against the callback.
func (a *Autocomplete) RespondChoices(choices []discord.Choice) {
	a.ack.mu.Lock()
	defer a.ack.mu.Unlock()

	if a.ack.phase != PhaseUnacknowledged {
		return
	}
	if choices == nil {
		choices = []discord.Choice{}
	}

	a.ack.phase = PhaseReplied
	a.ack.setResponse(&discord.InteractionResponse{
		Type: discord.ResponseTypeAutocompleteResult,
		Data: &discord.ResponseData{Choices: choices},
	})
}

// ModalSubmit is a submitted modal.
type ModalSubmit struct {
	Interaction

	CustomID string

	// Name and Args are the decoded segments of the modal's custom id.
	Name string
	Args []string

	// Fields maps text input custom ids to submitted values.
	Fields map[string]string
}

// NewModalSubmit wraps a modal submit event, flattening the submitted
// component rows into a field map.
func NewModalSubmit(rc *rest.Client, ev *discord.Interaction, data *discord.ModalData, name string, args []string) *ModalSubmit {
	fields := make(map[string]string)
	collectModalFields(data.Components, fields)

	return &ModalSubmit{
		Interaction: newBase(rc, ev),
		CustomID:    data.CustomID,
		Name:        name,
		Args:        args,
		Fields:      fields,
	}
}

func collectModalFields(components []discord.ModalComponent, out map[string]string) {
	for _, c := range components {
		if c.CustomID != "" && c.Type == discord.ComponentTypeTextInput {
			out[c.CustomID] = c.Value
		}
		collectModalFields(c.Components, out)
	}
}

// flattenSubcommand walks a single-option subcommand/group chain down to
// the basic options, returning the innermost command name. Mirrors the
// platform's nesting: a group holds exactly one subcommand per invocation.
func flattenSubcommand(name string, opts []discord.CommandOption) (string, []discord.CommandOption) {
	for len(opts) == 1 &&
		(opts[0].Type == discord.OptionTypeSubcommand || opts[0].Type == discord.OptionTypeSubcommandGroup) {
		name = opts[0].Name
		opts = opts[0].Options
	}
	return name, opts
}

// Package discord holds the wire types exchanged with the Discord HTTP API:
// inbound interaction payloads, outbound interaction responses, command
// registration bodies and the minimal entity structures resolved from them.
package discord

import "encoding/json"

// InteractionType identifies the kind of inbound interaction.
type InteractionType int

const (
	InteractionTypePing InteractionType = iota + 1
	InteractionTypeApplicationCommand
	InteractionTypeMessageComponent
	InteractionTypeAutocomplete
	InteractionTypeModalSubmit
)

// ComponentType identifies the kind of message component.
type ComponentType int

const (
	ComponentTypeActionRow ComponentType = iota + 1
	ComponentTypeButton
	ComponentTypeSelectMenu
	ComponentTypeTextInput
)

// Interaction is the outer envelope of an inbound interaction event.
// It is created on receipt and never mutated.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Token         string          `json:"token"`
	Data          json.RawMessage `json:"data,omitempty"`

	ChannelID   string `json:"channel_id,omitempty"`
	GuildID     string `json:"guild_id,omitempty"`
	Locale      string `json:"locale,omitempty"`
	GuildLocale string `json:"guild_locale,omitempty"`

	// User is set for interactions invoked in DMs, Member for guilds.
	User    *User    `json:"user,omitempty"`
	Member  *Member  `json:"member,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// CommandData is the kind-specific payload of application command and
// autocomplete interactions.
type CommandData struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     int             `json:"type"`
	Options  []CommandOption `json:"options,omitempty"`
	Resolved *ResolvedData   `json:"resolved,omitempty"`
}

// CommandOption is a single incoming option value. Subcommands and
// subcommand groups nest further options.
type CommandOption struct {
	Name    string          `json:"name"`
	Type    OptionType      `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
	Focused bool            `json:"focused,omitempty"`
}

// ComponentData is the kind-specific payload of message component interactions.
type ComponentData struct {
	CustomID      string        `json:"custom_id"`
	ComponentType ComponentType `json:"component_type"`
	Values        []string      `json:"values,omitempty"`
}

// ModalData is the kind-specific payload of modal submit interactions.
type ModalData struct {
	CustomID   string           `json:"custom_id"`
	Components []ModalComponent `json:"components,omitempty"`
}

// ModalComponent is an action row (or nested input) of a submitted modal.
type ModalComponent struct {
	Type       ComponentType    `json:"type"`
	CustomID   string           `json:"custom_id,omitempty"`
	Value      string           `json:"value,omitempty"`
	Components []ModalComponent `json:"components,omitempty"`
}

// ResolvedData is the per-interaction snapshot of entities referenced by
// option values. It is authoritative for the duration of one interaction.
type ResolvedData struct {
	Users       map[string]User       `json:"users,omitempty"`
	Members     map[string]Member     `json:"members,omitempty"`
	Roles       map[string]Role       `json:"roles,omitempty"`
	Channels    map[string]Channel    `json:"channels,omitempty"`
	Attachments map[string]Attachment `json:"attachments,omitempty"`
	Messages    map[string]Message    `json:"messages,omitempty"`
}

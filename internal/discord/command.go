package discord

// OptionType identifies the declared type of a command option.
type OptionType int

const (
	OptionTypeSubcommand OptionType = iota + 1
	OptionTypeSubcommandGroup
	OptionTypeString
	OptionTypeInteger
	OptionTypeBoolean
	OptionTypeUser
	OptionTypeChannel
	OptionTypeRole
	OptionTypeMentionable
	OptionTypeNumber
	OptionTypeAttachment
)

// ApplicationCommand is the registration body sent to the platform's
// command registration endpoint.
type ApplicationCommand struct {
	Name        string                     `json:"name"`
	Type        int                        `json:"type"`
	Description string                     `json:"description"`
	Options     []ApplicationCommandOption `json:"options,omitempty"`
}

// ApplicationCommandOption is the wire form of one declared option.
type ApplicationCommandOption struct {
	Type         OptionType `json:"type"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Required     bool       `json:"required,omitempty"`
	Choices      []Choice   `json:"choices,omitempty"`
	ChannelTypes []int      `json:"channel_types,omitempty"`
	MinValue     *float64   `json:"min_value,omitempty"`
	MaxValue     *float64   `json:"max_value,omitempty"`
	Autocomplete bool       `json:"autocomplete,omitempty"`
}

// Application is the partial application object returned by
// GET /oauth2/applications/@me, used to discover the application ID.
type Application struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

package discord

import "encoding/json"

// ResponseType identifies the shape of an interaction response body.
type ResponseType int

const (
	ResponseTypePong                   ResponseType = 1
	ResponseTypeChannelMessage         ResponseType = 4
	ResponseTypeDeferredChannelMessage ResponseType = 5
	ResponseTypeDeferredMessageUpdate  ResponseType = 6
	ResponseTypeUpdateMessage          ResponseType = 7
	ResponseTypeAutocompleteResult     ResponseType = 8
	ResponseTypeModal                  ResponseType = 9
)

// MessageFlagEphemeral marks a response visible only to the invoking user.
// Ephemeral messages have no durable message ID on the platform.
const MessageFlagEphemeral = 1 << 6

// InteractionResponse is the single JSON body returned for an inbound
// interaction. Exactly one is produced per event.
type InteractionResponse struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData is the payload of an interaction response. Which fields are
// meaningful depends on the response type: message fields for types 4/5/7,
// choices for type 8, custom_id/title/components for type 9.
type ResponseData struct {
	Content    string            `json:"content,omitempty"`
	Flags      int               `json:"flags,omitempty"`
	TTS        bool              `json:"tts,omitempty"`
	Embeds     []Embed           `json:"embeds,omitempty"`
	Components []json.RawMessage `json:"components,omitempty"`

	// Autocomplete result payload. omitzero keeps a non-nil empty list on
	// the wire as "choices": [] while omitting the field entirely for
	// message responses.
	Choices []Choice `json:"choices,omitzero"`

	// Modal payload.
	CustomID string `json:"custom_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Choice is one autocomplete or schema choice. Value is a string or number.
type Choice struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// StringChoice builds a Choice with a string value.
func StringChoice(name, value string) Choice {
	raw, _ := json.Marshal(value)
	return Choice{Name: name, Value: raw}
}

// NumberChoice builds a Choice with a numeric value.
func NumberChoice(name string, value float64) Choice {
	raw, _ := json.Marshal(value)
	return Choice{Name: name, Value: raw}
}

// WebhookParams is the body of follow-up and edit calls on the interaction
// webhook channel.
type WebhookParams struct {
	Content    string            `json:"content,omitempty"`
	Flags      int               `json:"flags,omitempty"`
	Embeds     []Embed           `json:"embeds,omitempty"`
	Components []json.RawMessage `json:"components,omitempty"`
}

// Package option implements the option codec: it projects declared option
// schemas into the platform's registration wire format and decodes incoming
// raw option payloads back into typed, entity-resolved values.
package option

import (
	"errors"
	"fmt"

	"github.com/gosuda/hookcord/internal/discord"
)

// Schema validation errors surfaced at registration time.
var (
	ErrMismatch        = errors.New("option: mismatch between received and configured options")
	ErrMissingRequired = errors.New("option: required option missing")
)

// Descriptor declares a single command option. The Type tag determines
// which optional fields are meaningful.
type Descriptor struct {
	Name        string
	Description string
	Type        discord.OptionType
	Required    bool

	// String, integer and number options only.
	Choices      []discord.Choice
	Autocomplete bool

	// Integer and number options only.
	MinValue *float64
	MaxValue *float64

	// Channel options only.
	ChannelTypes []int
}

// ValidateSchema rejects descriptor lists that the platform would refuse or
// that are internally contradictory. Called at registration time so
// configuration mistakes surface before deployment, not at dispatch.
func ValidateSchema(descs []Descriptor) error {
	seen := make(map[string]struct{}, len(descs))
	optionalSeen := false

	for _, d := range descs {
		if d.Name == "" {
			return errors.New("option name must not be empty")
		}
		if d.Description == "" {
			return fmt.Errorf("option %q: description must not be empty", d.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("option %q: duplicate name", d.Name)
		}
		seen[d.Name] = struct{}{}

		if d.Type < discord.OptionTypeSubcommand || d.Type > discord.OptionTypeAttachment {
			return fmt.Errorf("option %q: invalid type %d", d.Name, d.Type)
		}
		if d.Type == discord.OptionTypeSubcommand || d.Type == discord.OptionTypeSubcommandGroup {
			return fmt.Errorf("option %q: subcommands are declared as commands, not options", d.Name)
		}

		// Required options must precede optional ones.
		if d.Required && optionalSeen {
			return fmt.Errorf("option %q: required options must come before optional ones", d.Name)
		}
		if !d.Required {
			optionalSeen = true
		}

		if len(d.Choices) > 0 && d.Autocomplete {
			return fmt.Errorf("option %q: choices and autocomplete are mutually exclusive", d.Name)
		}
		if len(d.Choices) > 0 && !choosable(d.Type) {
			return fmt.Errorf("option %q: choices are only valid for string, integer and number options", d.Name)
		}
		if d.Autocomplete && !choosable(d.Type) {
			return fmt.Errorf("option %q: autocomplete is only valid for string, integer and number options", d.Name)
		}
		if (d.MinValue != nil || d.MaxValue != nil) && !numeric(d.Type) {
			return fmt.Errorf("option %q: min/max values are only valid for integer and number options", d.Name)
		}
		if len(d.ChannelTypes) > 0 && d.Type != discord.OptionTypeChannel {
			return fmt.Errorf("option %q: channel type filters are only valid for channel options", d.Name)
		}
	}

	return nil
}

// EncodeSchema projects descriptors into the registration wire format.
// The output order is the declaration order; the type tag gates which
// optional fields are serialized. Pure projection, never fails.
func EncodeSchema(descs []Descriptor) []discord.ApplicationCommandOption {
	out := make([]discord.ApplicationCommandOption, 0, len(descs))
	for _, d := range descs {
		wire := discord.ApplicationCommandOption{
			Type:        d.Type,
			Name:        d.Name,
			Description: d.Description,
			Required:    d.Required,
		}
		if choosable(d.Type) {
			wire.Choices = d.Choices
			wire.Autocomplete = d.Autocomplete
		}
		if numeric(d.Type) {
			wire.MinValue = d.MinValue
			wire.MaxValue = d.MaxValue
		}
		if d.Type == discord.OptionTypeChannel {
			wire.ChannelTypes = d.ChannelTypes
		}
		out = append(out, wire)
	}

	return out
}

// AnyAutocomplete reports whether any descriptor enables autocomplete.
func AnyAutocomplete(descs []Descriptor) bool {
	for _, d := range descs {
		if d.Autocomplete {
			return true
		}
	}
	return false
}

// AnyRequired reports whether any descriptor is required.
func AnyRequired(descs []Descriptor) bool {
	for _, d := range descs {
		if d.Required {
			return true
		}
	}
	return false
}

func choosable(t discord.OptionType) bool {
	return t == discord.OptionTypeString || t == discord.OptionTypeInteger || t == discord.OptionTypeNumber
}

func numeric(t discord.OptionType) bool {
	return t == discord.OptionTypeInteger || t == discord.OptionTypeNumber
}

package option

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gosuda/hookcord/internal/discord"
)

// EntitySource hydrates reference-typed options that are absent from the
// interaction's resolved snapshot, typically backed by the entity cache.
type EntitySource interface {
	User(ctx context.Context, id string) (*discord.User, bool)
	Role(ctx context.Context, id string) (*discord.Role, bool)
	Channel(ctx context.Context, id string) (*discord.Channel, bool)
}

// Value is one decoded option value. The Type tag selects which accessor
// carries the payload; reference types always expose the raw snowflake ID
// even when the entity could not be hydrated.
type Value struct {
	Type discord.OptionType

	str        string
	num        float64
	boolean    bool
	id         string
	user       *discord.User
	member     *discord.Member
	role       *discord.Role
	channel    *discord.Channel
	attachment *discord.Attachment
}

// String returns the value of a string option.
func (v Value) String() string { return v.str }

// Int returns the value of an integer option.
func (v Value) Int() int64 { return int64(v.num) }

// Float returns the value of a number option.
func (v Value) Float() float64 { return v.num }

// Bool returns the value of a boolean option.
func (v Value) Bool() bool { return v.boolean }

// ID returns the snowflake carried by a reference-typed option.
func (v Value) ID() string { return v.id }

// User returns the resolved user, nil when unresolvable.
func (v Value) User() *discord.User { return v.user }

// Member returns the resolved guild member, nil when unresolvable.
func (v Value) Member() *discord.Member { return v.member }

// Role returns the resolved role, nil when unresolvable.
func (v Value) Role() *discord.Role { return v.role }

// Channel returns the resolved channel, nil when unresolvable.
func (v Value) Channel() *discord.Channel { return v.channel }

// Attachment returns the resolved attachment, nil when unresolvable.
func (v Value) Attachment() *discord.Attachment { return v.attachment }

// Resolved maps option names to decoded values. It is constructed per
// dispatch and never outlives the callback invocation.
type Resolved map[string]Value

// Decode merges incoming raw options against the declared descriptors and
// produces typed values. Both sides are sorted by name for a linear merge.
// An incoming option with no matching descriptor, or whose type differs from
// the declared one, fails with ErrMismatch. When strict, a required
// descriptor left unmatched fails with ErrMissingRequired; lenient mode is
// for autocomplete dispatch where partially filled forms are normal.
func Decode(ctx context.Context, raw []discord.CommandOption, descs []Descriptor, resolved *discord.ResolvedData, src EntitySource, strict bool) (Resolved, error) {
	incoming := make([]discord.CommandOption, len(raw))
	copy(incoming, raw)
	sort.Slice(incoming, func(i, j int) bool { return incoming[i].Name < incoming[j].Name })

	declared := make([]Descriptor, len(descs))
	copy(declared, descs)
	sort.Slice(declared, func(i, j int) bool { return declared[i].Name < declared[j].Name })

	out := make(Resolved, len(incoming))

	di := 0
	for _, in := range incoming {
		for di < len(declared) && declared[di].Name < in.Name {
			if strict && declared[di].Required {
				return nil, fmt.Errorf("option %q: %w", declared[di].Name, ErrMissingRequired)
			}
			di++
		}
		if di >= len(declared) || declared[di].Name != in.Name {
			return nil, fmt.Errorf("option %q: unknown name: %w", in.Name, ErrMismatch)
		}
		if declared[di].Type != in.Type {
			return nil, fmt.Errorf("option %q: declared type %d, received %d: %w", in.Name, declared[di].Type, in.Type, ErrMismatch)
		}

		v, err := decodeValue(ctx, in, resolved, src)
		if err != nil {
			return nil, err
		}
		out[in.Name] = v
		di++
	}

	if strict {
		for ; di < len(declared); di++ {
			if declared[di].Required {
				return nil, fmt.Errorf("option %q: %w", declared[di].Name, ErrMissingRequired)
			}
		}
	}

	return out, nil
}

// FindFocused returns the name of the first option the user is currently
// typing. Only string, integer and number options can be focused; the first
// match wins if the platform marks more than one.
func FindFocused(raw []discord.CommandOption) (string, bool) {
	for _, o := range raw {
		if !o.Focused {
			continue
		}
		if choosable(o.Type) {
			return o.Name, true
		}
	}
	return "", false
}

func decodeValue(ctx context.Context, in discord.CommandOption, resolved *discord.ResolvedData, src EntitySource) (Value, error) {
	v := Value{Type: in.Type}

	switch in.Type {
	case discord.OptionTypeString:
		if err := json.Unmarshal(in.Value, &v.str); err != nil {
			return Value{}, fmt.Errorf("option %q: non-string value: %w", in.Name, ErrMismatch)
		}

	case discord.OptionTypeInteger, discord.OptionTypeNumber:
		if err := json.Unmarshal(in.Value, &v.num); err != nil {
			return Value{}, fmt.Errorf("option %q: non-numeric value: %w", in.Name, ErrMismatch)
		}

	case discord.OptionTypeBoolean:
		if err := json.Unmarshal(in.Value, &v.boolean); err != nil {
			return Value{}, fmt.Errorf("option %q: non-boolean value: %w", in.Name, ErrMismatch)
		}

	case discord.OptionTypeUser, discord.OptionTypeChannel, discord.OptionTypeRole,
		discord.OptionTypeMentionable, discord.OptionTypeAttachment:
		if err := json.Unmarshal(in.Value, &v.id); err != nil {
			return Value{}, fmt.Errorf("option %q: non-snowflake value: %w", in.Name, ErrMismatch)
		}
		hydrate(ctx, &v, resolved, src)

	default:
		return Value{}, fmt.Errorf("option %q: unexpected type %d: %w", in.Name, in.Type, ErrMismatch)
	}

	return v, nil
}

// hydrate fills the entity pointers for a reference-typed value. The
// interaction's resolved snapshot is authoritative; the entity source is
// only consulted for entities the snapshot does not carry. A reference that
// resolves nowhere keeps its ID and is not an error.
func hydrate(ctx context.Context, v *Value, resolved *discord.ResolvedData, src EntitySource) {
	switch v.Type {
	case discord.OptionTypeUser:
		v.user, v.member = lookupUser(ctx, v.id, resolved, src)

	case discord.OptionTypeRole:
		v.role = lookupRole(ctx, v.id, resolved, src)

	case discord.OptionTypeChannel:
		if resolved != nil {
			if c, ok := resolved.Channels[v.id]; ok {
				v.channel = &c
				return
			}
		}
		if src != nil {
			if c, ok := src.Channel(ctx, v.id); ok {
				v.channel = c
			}
		}

	case discord.OptionTypeMentionable:
		// A mentionable is a user or a role; try users first.
		v.user, v.member = lookupUser(ctx, v.id, resolved, src)
		if v.user == nil {
			v.role = lookupRole(ctx, v.id, resolved, src)
		}

	case discord.OptionTypeAttachment:
		// Attachments only ever exist in the snapshot.
		if resolved != nil {
			if a, ok := resolved.Attachments[v.id]; ok {
				v.attachment = &a
			}
		}
	}
}

func lookupUser(ctx context.Context, id string, resolved *discord.ResolvedData, src EntitySource) (*discord.User, *discord.Member) {
	var user *discord.User
	var member *discord.Member

	if resolved != nil {
		if u, ok := resolved.Users[id]; ok {
			user = &u
		}
		if m, ok := resolved.Members[id]; ok {
			member = &m
			if member.User == nil {
				member.User = user
			}
		}
	}
	if user == nil && src != nil {
		if u, ok := src.User(ctx, id); ok {
			user = u
		}
	}

	return user, member
}

func lookupRole(ctx context.Context, id string, resolved *discord.ResolvedData, src EntitySource) *discord.Role {
	if resolved != nil {
		if r, ok := resolved.Roles[id]; ok {
			return &r
		}
	}
	if src != nil {
		if r, ok := src.Role(ctx, id); ok {
			return r
		}
	}
	return nil
}

package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/hookcord/internal/command"
	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/interaction"
	"github.com/gosuda/hookcord/internal/option"
)

func noopCallback(_ context.Context, _ *interaction.Command, _ option.Resolved) error { return nil }

func noopAutocomplete(_ context.Context, _ *interaction.Autocomplete, _ string, _ option.Resolved) error {
	return nil
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     command.Config
		cb      command.Callback
		ac      []command.AutocompleteCallback
		wantErr string
	}{
		{
			name:    "empty name",
			cfg:     command.Config{Description: "d"},
			cb:      noopCallback,
			wantErr: "name must not be empty",
		},
		{
			name:    "empty description",
			cfg:     command.Config{Name: "ping"},
			cb:      noopCallback,
			wantErr: "description must not be empty",
		},
		{
			name:    "nil callback",
			cfg:     command.Config{Name: "ping", Description: "d"},
			wantErr: "callback must not be nil",
		},
		{
			name:    "invalid ack behavior",
			cfg:     command.Config{Name: "ping", Description: "d", AckBehavior: command.AckAutoUpdate},
			cb:      noopCallback,
			wantErr: "invalid ack behavior",
		},
		{
			name: "invalid option schema",
			cfg: command.Config{
				Name: "ping", Description: "d",
				Options: []option.Descriptor{{Name: "a", Type: discord.OptionTypeString}},
			},
			cb:      noopCallback,
			wantErr: "description must not be empty",
		},
		{
			name: "autocomplete declared without callback",
			cfg: command.Config{
				Name: "ping", Description: "d",
				Options: []option.Descriptor{
					{Name: "a", Description: "d", Type: discord.OptionTypeString, Autocomplete: true},
				},
			},
			cb:      noopCallback,
			wantErr: "autocomplete callback must be present",
		},
		{
			name:    "autocomplete callback without declaration",
			cfg:     command.Config{Name: "ping", Description: "d"},
			cb:      noopCallback,
			ac:      []command.AutocompleteCallback{noopAutocomplete},
			wantErr: "autocomplete callback must be present",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := command.NewRegistry()
			_, err := r.Register(tt.cfg, tt.cb, tt.ac...)
			require.ErrorIs(t, err, command.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Zero(t, r.Len(), "failed registration must not be stored")
		})
	}
}

func TestRegisterUpsertKeepsOrder(t *testing.T) {
	t.Parallel()

	r := command.NewRegistry()

	_, err := r.Register(command.Config{Name: "ping", Description: "first"}, noopCallback)
	require.NoError(t, err)
	_, err = r.Register(command.Config{Name: "echo", Description: "second"}, noopCallback)
	require.NoError(t, err)
	_, err = r.Register(command.Config{Name: "ping", Description: "replaced"}, noopCallback)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())

	cmd, ok := r.Resolve("ping")
	require.True(t, ok)
	assert.Equal(t, "replaced", cmd.Description)

	wire := r.WireConfig()
	require.Len(t, wire, 2)
	assert.Equal(t, "ping", wire[0].Name, "re-registration keeps the original position")
	assert.Equal(t, "echo", wire[1].Name)
}

func TestResolveUnknown(t *testing.T) {
	t.Parallel()

	r := command.NewRegistry()
	_, ok := r.Resolve("missing")
	assert.False(t, ok)
}

func TestRequiresOptions(t *testing.T) {
	t.Parallel()

	r := command.NewRegistry()
	cmd, err := r.Register(command.Config{
		Name: "ban", Description: "d",
		Options: []option.Descriptor{
			{Name: "who", Description: "d", Type: discord.OptionTypeUser, Required: true},
		},
	}, noopCallback)
	require.NoError(t, err)
	assert.True(t, cmd.RequiresOptions())
}

func TestCustomIDRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no args"},
		{name: "plain args", args: []string{"a", "b"}},
		{name: "separator inside arg", args: []string{"x::y"}},
		{name: "percent inside arg", args: []string{"100%", "a%3Ab"}},
		{name: "empty arg", args: []string{"", "b"}},
		{name: "unicode", args: []string{"héllo wörld"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := command.EncodeCustomID("handler", tt.args...)
			name, args, err := command.DecodeCustomID(encoded)
			require.NoError(t, err)
			assert.Equal(t, "handler", name)
			if len(tt.args) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestDecodeCustomIDBadEscape(t *testing.T) {
	t.Parallel()

	_, _, err := command.DecodeCustomID("handler::%zz")
	require.Error(t, err)
}

func TestComponentBindArgs(t *testing.T) {
	t.Parallel()

	r := command.NewComponentRegistry()
	comp, err := r.Register(command.ComponentConfig{
		Name:        "confirm",
		Params:      []string{"origin", "action"},
		AckBehavior: command.AckAutoUpdate,
	}, func(_ context.Context, _ *interaction.Component, _ map[string]string) error { return nil })
	require.NoError(t, err)

	bound, err := comp.BindArgs([]string{"int-1", "delete"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"origin": "int-1", "action": "delete"}, bound)

	_, err = comp.BindArgs([]string{"int-1"})
	require.ErrorIs(t, err, command.ErrComponentArity)
}

func TestComponentRegistryValidation(t *testing.T) {
	t.Parallel()

	r := command.NewComponentRegistry()

	_, err := r.Register(command.ComponentConfig{}, func(_ context.Context, _ *interaction.Component, _ map[string]string) error { return nil })
	require.ErrorIs(t, err, command.ErrConfiguration)

	_, err = r.Register(command.ComponentConfig{Name: "x"}, nil)
	require.ErrorIs(t, err, command.ErrConfiguration)

	_, err = r.Register(command.ComponentConfig{Name: "x", AckBehavior: command.AckBehavior(9)}, func(_ context.Context, _ *interaction.Component, _ map[string]string) error { return nil })
	require.ErrorIs(t, err, command.ErrConfiguration)
}

func TestComponentRegistryCustomID(t *testing.T) {
	t.Parallel()

	r := command.NewComponentRegistry()
	id := r.CustomID("confirm", "a::b")

	name, args, err := command.DecodeCustomID(id)
	require.NoError(t, err)
	assert.Equal(t, "confirm", name)
	assert.Equal(t, []string{"a::b"}, args)
}

func TestModalRegistry(t *testing.T) {
	t.Parallel()

	r := command.NewModalRegistry()

	m, err := r.Register(command.ModalConfig{Name: "feedback", Params: []string{"topic"}},
		func(_ context.Context, _ *interaction.ModalSubmit, _ map[string]string) error { return nil })
	require.NoError(t, err)

	got, ok := r.Resolve("feedback")
	require.True(t, ok)
	assert.Same(t, m, got)

	bound, err := m.BindArgs([]string{"billing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"topic": "billing"}, bound)

	_, err = m.BindArgs(nil)
	require.ErrorIs(t, err, command.ErrComponentArity)
}

package interaction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/interaction"
	"github.com/gosuda/hookcord/internal/rest"
)

// recordedRequest captures one call made against the fake Discord API.
type recordedRequest struct {
	Method string
	Path   string
	Body   discord.WebhookParams
}

// fakeAPI is an httptest server that records webhook calls and answers with
// a fixed message body.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	server   *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1","content":"ok"}`))
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeAPI) client() *rest.Client {
	return rest.New("", rest.WithBaseURL(f.server.URL))
}

func commandEvent() *discord.Interaction {
	return &discord.Interaction{
		ID:            "int-1",
		ApplicationID: "app-1",
		Type:          discord.InteractionTypeApplicationCommand,
		Token:         "tok-1",
		ChannelID:     "chan-1",
		GuildID:       "guild-1",
		Member:        &discord.Member{User: &discord.User{ID: "user-1", Username: "alice"}},
	}
}

func newTestCommand(t *testing.T) (*interaction.Command, *fakeAPI) {
	t.Helper()
	api := newFakeAPI(t)
	cmd := interaction.NewCommand(api.client(), commandEvent(), &discord.CommandData{ID: "cmd-1", Name: "ping"})
	return cmd, api
}

func TestDeferIsIdempotent(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	cmd.Defer(false)
	cmd.Defer(true)
	cmd.Defer(false)

	assert.Equal(t, interaction.PhaseDeferred, cmd.Phase())
	assert.False(t, cmd.Ephemeral(), "second defer must not rewrite the latched flag")

	resp, err := cmd.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, discord.ResponseTypeDeferredChannelMessage, resp.Type)
}

func TestDeferAfterRespondIsNoOp(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	_, err := cmd.Respond(context.Background(), &discord.ResponseData{Content: "pong"})
	require.NoError(t, err)

	cmd.Defer(false)

	assert.Equal(t, interaction.PhaseReplied, cmd.Phase())

	resp, err := cmd.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, discord.ResponseTypeChannelMessage, resp.Type)
	assert.Equal(t, "pong", resp.Data.Content)
}

func TestRespondWhileUnacknowledgedStagesFirstResponse(t *testing.T) {
	t.Parallel()

	cmd, api := newTestCommand(t)

	msg, err := cmd.Respond(context.Background(), &discord.ResponseData{Content: "hi"})
	require.NoError(t, err)
	assert.Nil(t, msg, "first response has no addressable message yet")
	assert.Empty(t, api.recorded(), "first response must not touch the network")
}

func TestRespondAfterDeferEditsOriginal(t *testing.T) {
	t.Parallel()

	cmd, api := newTestCommand(t)

	cmd.Defer(false)
	msg, err := cmd.Respond(context.Background(), &discord.ResponseData{Content: "late"})
	require.NoError(t, err)
	require.NotNil(t, msg)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/webhooks/app-1/tok-1/messages/@original", reqs[0].Path)
	assert.Equal(t, "late", reqs[0].Body.Content)
	assert.Equal(t, interaction.PhaseReplied, cmd.Phase())
}

func TestRespondAfterReplyCreatesFollowUp(t *testing.T) {
	t.Parallel()

	cmd, api := newTestCommand(t)

	_, err := cmd.Respond(context.Background(), &discord.ResponseData{Content: "first"})
	require.NoError(t, err)

	msg, err := cmd.Respond(context.Background(), &discord.ResponseData{Content: "second"})
	require.NoError(t, err)
	require.NotNil(t, msg)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/webhooks/app-1/tok-1", reqs[0].Path)
}

func TestRespondRejectsExplicitEphemeralFlag(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	_, err := cmd.Respond(context.Background(), &discord.ResponseData{
		Content: "secret",
		Flags:   discord.MessageFlagEphemeral,
	})
	require.ErrorIs(t, err, interaction.ErrInvalidState)
	assert.Equal(t, interaction.PhaseUnacknowledged, cmd.Phase(), "rejected call must not transition")
}

func TestEphemeralLatchForcesLaterResponses(t *testing.T) {
	t.Parallel()

	cmd, api := newTestCommand(t)

	cmd.Defer(true)
	require.True(t, cmd.Ephemeral())

	_, err := cmd.Respond(context.Background(), &discord.ResponseData{Content: "hidden"})
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, discord.MessageFlagEphemeral, reqs[0].Body.Flags&discord.MessageFlagEphemeral)
}

func TestRespondEphemeralAfterPublicDeferFails(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	cmd.Defer(false)
	_, err := cmd.RespondEphemeral(context.Background(), &discord.ResponseData{Content: "secret"})
	require.ErrorIs(t, err, interaction.ErrInvalidState)
}

func TestModalOnlyAsFirstResponse(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	require.NoError(t, cmd.Modal(&discord.ResponseData{CustomID: "feedback", Title: "Feedback"}))

	resp, err := cmd.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, discord.ResponseTypeModal, resp.Type)

	other, _ := newTestCommand(t)
	other.Defer(false)
	assert.ErrorIs(t, other.Modal(&discord.ResponseData{CustomID: "feedback"}), interaction.ErrInvalidState)
}

func TestAwaitResponseHonorsContext(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := cmd.AwaitResponse(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentDeferAndRespondProduceOneResponse(t *testing.T) {
	t.Parallel()

	for range 50 {
		cmd, _ := newTestCommand(t)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			cmd.Defer(false)
		}()
		go func() {
			defer wg.Done()
			_, _ = cmd.Respond(context.Background(), &discord.ResponseData{Content: "fast"})
		}()
		wg.Wait()

		resp, err := cmd.AwaitResponse(context.Background())
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Contains(t, []discord.ResponseType{
			discord.ResponseTypeChannelMessage,
			discord.ResponseTypeDeferredChannelMessage,
		}, resp.Type)
	}
}

func TestComponentDeferUpdateAndUpdate(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	ev := commandEvent()
	ev.Type = discord.InteractionTypeMessageComponent

	comp := interaction.NewComponent(api.client(), ev, &discord.ComponentData{
		CustomID:      "confirm::int-0",
		ComponentType: discord.ComponentTypeButton,
	}, "confirm", []string{"int-0"})

	assert.True(t, comp.IsButton())

	comp.DeferUpdate()
	comp.DeferUpdate()

	resp, err := comp.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, discord.ResponseTypeDeferredMessageUpdate, resp.Type)

	assert.ErrorIs(t, comp.Update(&discord.ResponseData{Content: "too late"}), interaction.ErrInvalidState)
}

func TestComponentUpdateAsFirstResponse(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	ev := commandEvent()
	ev.Type = discord.InteractionTypeMessageComponent

	comp := interaction.NewComponent(api.client(), ev, &discord.ComponentData{
		CustomID:      "pick",
		ComponentType: discord.ComponentTypeSelectMenu,
		Values:        []string{"red"},
	}, "pick", nil)

	assert.True(t, comp.IsSelectMenu())
	require.NoError(t, comp.Update(&discord.ResponseData{Content: "picked red"}))

	resp, err := comp.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, discord.ResponseTypeUpdateMessage, resp.Type)
}

func TestAutocompleteFirstChoicesWin(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	ev := commandEvent()
	ev.Type = discord.InteractionTypeAutocomplete

	ac := interaction.NewAutocomplete(api.client(), ev, &discord.CommandData{Name: "echo"})

	ac.RespondChoices([]discord.Choice{discord.StringChoice("apple", "apple")})
	ac.RespondChoices([]discord.Choice{discord.StringChoice("banana", "banana")})

	resp, err := ac.AwaitResponse(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Data.Choices, 1)
	assert.Equal(t, "apple", resp.Data.Choices[0].Name)
}

func TestAutocompleteNilChoicesSerializeAsEmptyList(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	ev := commandEvent()
	ev.Type = discord.InteractionTypeAutocomplete

	ac := interaction.NewAutocomplete(api.client(), ev, &discord.CommandData{Name: "echo"})
	ac.RespondChoices(nil)

	resp, err := ac.AwaitResponse(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"choices":[]`)
}

func TestSubcommandFlattening(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)

	leaf := []discord.CommandOption{
		{Name: "target", Type: discord.OptionTypeString, Value: json.RawMessage(`"x"`)},
	}
	data := &discord.CommandData{
		Name: "admin",
		Options: []discord.CommandOption{
			{
				Name: "user",
				Type: discord.OptionTypeSubcommandGroup,
				Options: []discord.CommandOption{
					{Name: "ban", Type: discord.OptionTypeSubcommand, Options: leaf},
				},
			},
		},
	}

	cmd := interaction.NewCommand(api.client(), commandEvent(), data)

	assert.Equal(t, "admin", cmd.CommandName)
	assert.Equal(t, "ban", cmd.Subcommand)
	require.Len(t, cmd.Options, 1)
	assert.Equal(t, "target", cmd.Options[0].Name)
}

func TestModalSubmitCollectsTextInputs(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	ev := commandEvent()
	ev.Type = discord.InteractionTypeModalSubmit

	data := &discord.ModalData{
		CustomID: "feedback",
		Components: []discord.ModalComponent{
			{
				Type: discord.ComponentTypeActionRow,
				Components: []discord.ModalComponent{
					{Type: discord.ComponentTypeTextInput, CustomID: "feedback_text", Value: "nice"},
				},
			},
		},
	}

	m := interaction.NewModalSubmit(api.client(), ev, data, "feedback", nil)
	assert.Equal(t, map[string]string{"feedback_text": "nice"}, m.Fields)
}

func TestWebhookFollowUpRequiresReply(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)

	_, err := cmd.Webhook().FollowUp(context.Background(), &discord.WebhookParams{Content: "early"})
	require.ErrorIs(t, err, interaction.ErrInvalidState)

	cmd.Defer(false)
	_, err = cmd.Webhook().FollowUp(context.Background(), &discord.WebhookParams{Content: "still early"})
	require.ErrorIs(t, err, interaction.ErrInvalidState)
}

func TestWebhookFollowUpInheritsEphemeral(t *testing.T) {
	t.Parallel()

	cmd, api := newTestCommand(t)

	_, err := cmd.RespondEphemeral(context.Background(), &discord.ResponseData{Content: "hidden"})
	require.NoError(t, err)

	_, err = cmd.Webhook().FollowUp(context.Background(), &discord.WebhookParams{Content: "more"})
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, discord.MessageFlagEphemeral, reqs[0].Body.Flags&discord.MessageFlagEphemeral)
}

func TestWebhookEditOriginalLegality(t *testing.T) {
	t.Parallel()

	t.Run("unacknowledged", func(t *testing.T) {
		t.Parallel()
		cmd, _ := newTestCommand(t)
		_, err := cmd.Webhook().EditOriginal(context.Background(), &discord.WebhookParams{Content: "x"})
		require.ErrorIs(t, err, interaction.ErrInvalidState)
	})

	t.Run("ephemeral", func(t *testing.T) {
		t.Parallel()
		cmd, _ := newTestCommand(t)
		_, err := cmd.RespondEphemeral(context.Background(), &discord.ResponseData{Content: "hidden"})
		require.NoError(t, err)

		_, err = cmd.Webhook().EditOriginal(context.Background(), &discord.WebhookParams{Content: "x"})
		require.ErrorIs(t, err, interaction.ErrInvalidState)

		err = cmd.Webhook().DeleteOriginal(context.Background())
		require.ErrorIs(t, err, interaction.ErrInvalidState)
	})

	t.Run("deferred promotes to replied", func(t *testing.T) {
		t.Parallel()
		cmd, api := newTestCommand(t)
		cmd.Defer(false)

		_, err := cmd.Webhook().EditOriginal(context.Background(), &discord.WebhookParams{Content: "done"})
		require.NoError(t, err)
		assert.Equal(t, interaction.PhaseReplied, cmd.Phase())

		reqs := api.recorded()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPatch, reqs[0].Method)
	})
}

func TestWebhookGetOriginalRequiresAcknowledgement(t *testing.T) {
	t.Parallel()

	cmd, _ := newTestCommand(t)
	_, err := cmd.Webhook().GetOriginal(context.Background())
	require.ErrorIs(t, err, interaction.ErrInvalidState)

	cmd.Defer(true)
	_, err = cmd.Webhook().GetOriginal(context.Background())
	require.NoError(t, err, "get original is legal even for ephemeral messages")
}

// Package interaction wraps inbound interaction events with the
// acknowledgement state machine that governs reply, defer, ephemeral and
// follow-up semantics, and exposes the webhook channel used for all message
// operations after the first HTTP response.
package interaction

import (
	"context"
	"fmt"

	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/rest"
)

// Interaction is the base wrapper shared by all interaction kinds. The
// event fields are read-only for the lifetime of the response cycle.
type Interaction struct {
	ID            string
	ApplicationID string
	Type          discord.InteractionType
	Token         string

	ChannelID   string
	GuildID     string
	Locale      string
	GuildLocale string

	User    *discord.User
	Member  *discord.Member
	Message *discord.Message

	// Raw is the undecoded envelope the event arrived in.
	Raw *discord.Interaction

	ack     *ackState
	webhook *Webhook
}

func newBase(rc *rest.Client, ev *discord.Interaction) Interaction {
	ack := newAckState()
	return Interaction{
		ID:            ev.ID,
		ApplicationID: ev.ApplicationID,
		Type:          ev.Type,
		Token:         ev.Token,
		ChannelID:     ev.ChannelID,
		GuildID:       ev.GuildID,
		Locale:        ev.Locale,
		GuildLocale:   ev.GuildLocale,
		User:          ev.User,
		Member:        ev.Member,
		Message:       ev.Message,
		Raw:           ev,
		ack:           ack,
		webhook: &Webhook{
			rest:          rc,
			applicationID: ev.ApplicationID,
			token:         ev.Token,
			ack:           ack,
		},
	}
}

// InDM reports whether the interaction was invoked in a direct message.
func (i *Interaction) InDM() bool { return i.User != nil }

// InGuild reports whether the interaction was invoked in a guild.
func (i *Interaction) InGuild() bool { return i.Member != nil }

// Phase returns the current acknowledgement phase.
func (i *Interaction) Phase() Phase {
	i.ack.mu.Lock()
	defer i.ack.mu.Unlock()
	return i.ack.phase
}

// Ephemeral reports whether the ephemeral flag has been latched true.
func (i *Interaction) Ephemeral() bool {
	i.ack.mu.Lock()
	defer i.ack.mu.Unlock()
	return i.ack.ephemeral
}

// Webhook returns the webhook channel capability for this interaction.
// It stays valid for the token's validity window, well past the first
// HTTP response.
func (i *Interaction) Webhook() *Webhook { return i.webhook }

// AwaitResponse blocks until the first HTTP response body is available.
// The returned body is the only value ever written back for this event.
func (i *Interaction) AwaitResponse(ctx context.Context) (*discord.InteractionResponse, error) {
	return i.ack.await(ctx)
}

// Defer acknowledges the interaction without content, showing the user a
// loading state. Idempotent: calling it after any acknowledgement is a
// no-op, which is what makes the deadline timer safe to fire after a
// callback already replied.
func (i *Interaction) Defer(ephemeral bool) {
	i.ack.mu.Lock()
	defer i.ack.mu.Unlock()

	if i.ack.phase != PhaseUnacknowledged {
		return
	}

	i.ack.phase = PhaseDeferred
	i.ack.latchEphemeral(ephemeral)

	data := &discord.ResponseData{}
	if ephemeral {
		data.Flags = discord.MessageFlagEphemeral
	}
	i.ack.setResponse(&discord.InteractionResponse{
		Type: discord.ResponseTypeDeferredChannelMessage,
		Data: data,
	})
}

// Respond sends a non-ephemeral message. From Unacknowledged it becomes the
// first HTTP response; from Deferred it edits the deferral message via the
// webhook channel; from Replied it creates an independently addressable
// follow-up. Explicit ephemeral flags are rejected: use RespondEphemeral.
func (i *Interaction) Respond(ctx context.Context, data *discord.ResponseData) (*discord.Message, error) {
	if data != nil && data.Flags&discord.MessageFlagEphemeral != 0 {
		return nil, fmt.Errorf("interaction: Respond with ephemeral flag: %w: use RespondEphemeral", ErrInvalidState)
	}
	return i.respond(ctx, data, false)
}

// RespondEphemeral is Respond with a guaranteed ephemeral message. It fails
// with ErrInvalidState when the interaction was deferred non-ephemerally,
// since the deferral message is already visible to everyone.
func (i *Interaction) RespondEphemeral(ctx context.Context, data *discord.ResponseData) (*discord.Message, error) {
	return i.respond(ctx, data, true)
}

func (i *Interaction) respond(ctx context.Context, data *discord.ResponseData, ephemeral bool) (*discord.Message, error) {
	if data == nil {
		data = &discord.ResponseData{}
	}

	i.ack.mu.Lock()

	// Once latched ephemeral, every subsequent reply defaults to ephemeral.
	if i.ack.ephemeral {
		ephemeral = true
	}
	if ephemeral {
		data.Flags |= discord.MessageFlagEphemeral
	}

	switch i.ack.phase {
	case PhaseUnacknowledged:
		i.ack.phase = PhaseReplied
		i.ack.latchEphemeral(ephemeral)
		i.ack.setResponse(&discord.InteractionResponse{
			Type: discord.ResponseTypeChannelMessage,
			Data: data,
		})
		i.ack.mu.Unlock()
		return nil, nil

	case PhaseDeferred:
		if ephemeral && !i.ack.ephemeral {
			i.ack.mu.Unlock()
			return nil, fmt.Errorf("interaction: ephemeral respond after non-ephemeral defer: %w", ErrInvalidState)
		}
		i.ack.phase = PhaseReplied
		i.ack.mu.Unlock()
		// Editing the deferral message is legal even when ephemeral; the
		// deferral is the one ephemeral message that is still addressable.
		msg, err := i.webhook.rest.EditOriginalMessage(ctx, i.ApplicationID, i.Token, webhookParams(data))
		if err != nil {
			return nil, fmt.Errorf("interaction.Interaction.Respond: %w", err)
		}
		return msg, nil

	default: // PhaseReplied
		i.ack.mu.Unlock()
		msg, err := i.webhook.rest.ExecuteWebhook(ctx, i.ApplicationID, i.Token, webhookParams(data))
		if err != nil {
			return nil, fmt.Errorf("interaction.Interaction.Respond: %w", err)
		}
		return msg, nil
	}
}

// Modal opens a modal as the first response. Only legal while
// unacknowledged; the platform cannot retrofit a modal onto a deferred or
// replied interaction.
func (i *Interaction) Modal(data *discord.ResponseData) error {
	i.ack.mu.Lock()
	defer i.ack.mu.Unlock()

	if i.ack.phase != PhaseUnacknowledged {
		return fmt.Errorf("interaction: modal after acknowledgement: %w", ErrInvalidState)
	}

	i.ack.phase = PhaseReplied
	i.ack.latchEphemeral(false)
	i.ack.setResponse(&discord.InteractionResponse{
		Type: discord.ResponseTypeModal,
		Data: data,
	})

	return nil
}

func webhookParams(data *discord.ResponseData) *discord.WebhookParams {
	return &discord.WebhookParams{
		Content:    data.Content,
		Flags:      data.Flags,
		Embeds:     data.Embeds,
		Components: data.Components,
	}
}

package interaction

import (
	"context"
	"fmt"

	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/rest"
)

// Webhook is the capability for all message operations after the first
// HTTP response, authenticated by the interaction token. Every method
// checks the acknowledgement state before touching the network: illegal
// calls fail with ErrInvalidState and leave the state machine untouched.
// Calls are bounded only by the token's validity window, which the remote
// platform enforces.
type Webhook struct {
	rest          *rest.Client
	applicationID string
	token         string
	ack           *ackState
}

// FollowUp creates an additional, independently addressable message.
// Requires a replied interaction: following up before any initial message
// exists is a misuse this engine rejects even though the remote API would
// accept it. Once the interaction is ephemeral, follow-ups default to
// ephemeral as well.
func (w *Webhook) FollowUp(ctx context.Context, params *discord.WebhookParams) (*discord.Message, error) {
	w.ack.mu.Lock()
	if w.ack.phase != PhaseReplied {
		w.ack.mu.Unlock()
		return nil, fmt.Errorf("interaction: follow-up before reply: %w", ErrInvalidState)
	}
	if w.ack.ephemeral {
		params = withEphemeralDefault(params)
	}
	w.ack.mu.Unlock()

	msg, err := w.rest.ExecuteWebhook(ctx, w.applicationID, w.token, params)
	if err != nil {
		return nil, fmt.Errorf("interaction.Webhook.FollowUp: %w", err)
	}
	return msg, nil
}

// GetOriginal fetches the initial response message. Requires an
// acknowledged interaction.
func (w *Webhook) GetOriginal(ctx context.Context) (*discord.Message, error) {
	if err := w.requireAddressable(false); err != nil {
		return nil, err
	}

	msg, err := w.rest.GetOriginalMessage(ctx, w.applicationID, w.token)
	if err != nil {
		return nil, fmt.Errorf("interaction.Webhook.GetOriginal: %w", err)
	}
	return msg, nil
}

// EditOriginal edits the initial response message. Requires a deferred or
// replied interaction that is not ephemeral: ephemeral messages have no
// addressable ID on the platform.
func (w *Webhook) EditOriginal(ctx context.Context, params *discord.WebhookParams) (*discord.Message, error) {
	if err := w.requireAddressable(true); err != nil {
		return nil, err
	}

	w.ack.mu.Lock()
	if w.ack.phase == PhaseDeferred {
		w.ack.phase = PhaseReplied
	}
	w.ack.mu.Unlock()

	msg, err := w.rest.EditOriginalMessage(ctx, w.applicationID, w.token, params)
	if err != nil {
		return nil, fmt.Errorf("interaction.Webhook.EditOriginal: %w", err)
	}
	return msg, nil
}

// DeleteOriginal deletes the initial response message. Same legality as
// EditOriginal.
func (w *Webhook) DeleteOriginal(ctx context.Context) error {
	if err := w.requireAddressable(true); err != nil {
		return err
	}

	if err := w.rest.DeleteOriginalMessage(ctx, w.applicationID, w.token); err != nil {
		return fmt.Errorf("interaction.Webhook.DeleteOriginal: %w", err)
	}
	return nil
}

// EditMessage edits a follow-up message by ID. Follow-up IDs are only ever
// handed out for addressable messages, so no state check applies.
func (w *Webhook) EditMessage(ctx context.Context, messageID string, params *discord.WebhookParams) (*discord.Message, error) {
	msg, err := w.rest.EditMessage(ctx, w.applicationID, w.token, messageID, params)
	if err != nil {
		return nil, fmt.Errorf("interaction.Webhook.EditMessage: %w", err)
	}
	return msg, nil
}

// DeleteMessage deletes a follow-up message by ID.
func (w *Webhook) DeleteMessage(ctx context.Context, messageID string) error {
	if err := w.rest.DeleteMessage(ctx, w.applicationID, w.token, messageID); err != nil {
		return fmt.Errorf("interaction.Webhook.DeleteMessage: %w", err)
	}
	return nil
}

// requireAddressable checks that the original message exists and, when
// rejectEphemeral is set, that it carries a durable ID.
func (w *Webhook) requireAddressable(rejectEphemeral bool) error {
	w.ack.mu.Lock()
	defer w.ack.mu.Unlock()

	if w.ack.phase == PhaseUnacknowledged {
		return fmt.Errorf("interaction: no original message yet: %w", ErrInvalidState)
	}
	if rejectEphemeral && w.ack.ephemeral {
		return fmt.Errorf("interaction: ephemeral messages are not addressable: %w", ErrInvalidState)
	}
	return nil
}

func withEphemeralDefault(params *discord.WebhookParams) *discord.WebhookParams {
	if params == nil {
		return &discord.WebhookParams{Flags: discord.MessageFlagEphemeral}
	}
	clone := *params
	clone.Flags |= discord.MessageFlagEphemeral
	return &clone
}

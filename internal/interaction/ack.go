package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gosuda/hookcord/internal/discord"
)

// ErrInvalidState is returned when a response operation is attempted from a
// phase that does not permit it. The state machine rejects the call without
// applying it; the interaction remains usable.
var ErrInvalidState = errors.New("interaction: operation not legal in current state")

// Phase is the acknowledgement phase of one interaction. Transitions only
// move forward: Unacknowledged -> Deferred -> Replied, or Unacknowledged ->
// Replied directly. Replied is terminal for the first HTTP response but not
// for follow-up webhook calls.
type Phase int

const (
	PhaseUnacknowledged Phase = iota
	PhaseDeferred
	PhaseReplied
)

func (p Phase) String() string {
	switch p {
	case PhaseUnacknowledged:
		return "unacknowledged"
	case PhaseDeferred:
		return "deferred"
	case PhaseReplied:
		return "replied"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ackState is the per-interaction acknowledgement state machine. All
// transitions happen under mu so the callback-wins and timer-wins race
// paths are safe when they execute on separate goroutines. The response
// slot is assigned at most once; done is closed the moment it is set.
type ackState struct {
	mu           sync.Mutex
	phase        Phase
	ephemeral    bool
	ephemeralSet bool
	response     *discord.InteractionResponse
	done         chan struct{}
}

func newAckState() *ackState {
	return &ackState{done: make(chan struct{})}
}

// setResponse stages resp as the one HTTP response body. Callers must hold
// mu. Returns false if a body was already staged.
func (s *ackState) setResponse(resp *discord.InteractionResponse) bool {
	if s.response != nil {
		return false
	}
	s.response = resp
	close(s.done)
	return true
}

// latchEphemeral records the ephemeral flag at the first transition out of
// Unacknowledged. Callers must hold mu. Later calls are ignored; the flag
// is immutable once set.
func (s *ackState) latchEphemeral(ephemeral bool) {
	if s.ephemeralSet {
		return
	}
	s.ephemeral = ephemeral
	s.ephemeralSet = true
}

// await blocks until the response slot is assigned or ctx is cancelled.
func (s *ackState) await(ctx context.Context) (*discord.InteractionResponse, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.response, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("interaction: awaiting response: %w", ctx.Err())
	}
}

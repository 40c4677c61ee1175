package core

import (
	"github.com/google/uuid"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// NewEnvelope creates the event envelope attached to a locally issued
// mutation. The nonce is unique per mutation so the stream echo of the same
// change can be recognized and suppressed.
func NewEnvelope(actor string) types.Envelope {
	return types.Envelope{
		Nonce: uuid.NewString(),
		Actor: actor,
	}
}

package kafka

import (
	"context"

	"github.com/google/uuid"

	"github.com/calder-labs/pushgate/internal/domain/intent"
)

// IntentEventsKafka publishes notification intents onto the intent topic.
type IntentEventsKafka struct {
	p *Producer
}

func NewIntentEventsKafka(p *Producer) *IntentEventsKafka { return &IntentEventsKafka{p: p} }

var _ intent.Events = (*IntentEventsKafka)(nil)

// Publish enqueues one intent. An id is assigned here so the dispatcher's
// logs can be correlated back to the enqueueing request. Targeted intents
// are keyed by their first recipient so per-owner ordering is stable;
// broadcasts share a constant key.
func (e *IntentEventsKafka) Publish(ctx context.Context, in *intent.Intent) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	key := []byte("broadcast")
	if in.Type == intent.ModeTargeted && len(in.UserIDs) > 0 {
		key = []byte(in.UserIDs[0])
	}
	return e.p.PublishJSON(ctx, key, in)
}

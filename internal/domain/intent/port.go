package intent

import "context"

// Events publishes intents onto the asynchronous intent channel.
// Publishing only enqueues; delivery happens later in the dispatcher.
type Events interface {
	Publish(ctx context.Context, in *Intent) error
}

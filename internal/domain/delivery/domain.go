package delivery

import (
	"context"
	"net/http"

	"github.com/calder-labs/pushgate/internal/domain/subscription"
)

// Outcome classifies one delivery attempt to one endpoint.
type Outcome string

const (
	// Delivered: the receiving platform accepted the message.
	Delivered Outcome = "delivered"
	// Invalidated: the endpoint is permanently dead; the subscription must
	// be removed from the registry.
	Invalidated Outcome = "invalidated"
	// Throttled: the receiving platform is rate-limiting. Transient; the
	// subscription is kept and no retry happens within the cycle.
	Throttled Outcome = "throttled"
	// Failed: any other transport error, timeouts included. Transient.
	Failed Outcome = "failed"
)

// Pusher is the delivery client contract: one push attempt to one endpoint.
// On a non-2xx response the status code is returned alongside the error so
// the outcome can be classified.
type Pusher interface {
	Send(ctx context.Context, sub *subscription.Subscription, payload []byte) (status int, err error)
}

// Classify maps one attempt's raw result to an outcome. Only an explicit
// 404/410 from the platform may invalidate a subscription; a timeout or
// transport error without a status must never cause registry deletion.
func Classify(status int, err error) Outcome {
	switch status {
	case http.StatusNotFound, http.StatusGone:
		return Invalidated
	case http.StatusTooManyRequests:
		return Throttled
	}
	if err != nil {
		return Failed
	}
	return Delivered
}

// Report aggregates one dispatch cycle. The cycle itself always completes;
// the mix of outcomes is observability, not a cycle error.
type Report struct {
	Resolved    int
	Delivered   int
	Throttled   int
	Failed      int
	Invalidated int
	Removed     int
}

package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/calder-labs/pushgate/internal/domain/delivery"
	"github.com/calder-labs/pushgate/internal/domain/intent"
	"github.com/calder-labs/pushgate/internal/domain/subscription"
	"github.com/calder-labs/pushgate/internal/obs"
	"github.com/calder-labs/pushgate/internal/obs/retry"
)

// DefaultBatchSize bounds concurrent outbound pushes per batch, which is
// the only backpressure against the receiving platforms.
const DefaultBatchSize = 100

// Dispatcher expands one intent into independent delivery attempts:
// resolve recipients, deliver in sequential bounded batches, then remove
// subscriptions the platform reported permanently gone. It holds no state
// across cycles; distinct intents may be dispatched concurrently.
type Dispatcher struct {
	Subs      subscription.Repo
	Push      delivery.Pusher
	Log       *zap.Logger
	BatchSize int
}

type attempt struct {
	sub     *subscription.Subscription
	outcome delivery.Outcome
	status  int
	err     error
}

// Dispatch runs one full cycle. The returned report always reflects every
// attempt; the error is non-nil only when recipients could not be resolved
// at all. Individual delivery failures never fail the cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, in *intent.Intent) (*delivery.Report, error) {
	tr := otel.Tracer("push-dispatcher")
	ctx, span := tr.Start(ctx, "dispatch.cycle")
	defer span.End()
	span.SetAttributes(
		attribute.String("intent.id", in.ID),
		attribute.String("intent.type", string(in.Type)),
	)

	payload, err := json.Marshal(in.Notification)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	rep := &delivery.Report{}
	var invalidated []*subscription.Subscription

	switch in.Type {
	case intent.ModeTargeted:
		subs, err := d.resolveTargeted(ctx, in.UserIDs)
		if err != nil {
			return rep, fmt.Errorf("resolve recipients: %w", err)
		}
		rep.Resolved = len(subs)
		invalidated = append(invalidated, d.deliver(ctx, subs, payload, rep)...)

	case intent.ModeBroadcast:
		// Pages are delivered as they arrive so the full registry never
		// resides in memory. Page size doubles as the delivery batch size.
		cursor := ""
		for {
			page, next, err := d.Subs.ListAll(ctx, cursor, d.batchSize())
			if err != nil {
				return rep, fmt.Errorf("scan subscriptions: %w", err)
			}
			rep.Resolved += len(page)
			invalidated = append(invalidated, d.deliver(ctx, page, payload, rep)...)
			if next == "" {
				break
			}
			cursor = next
		}

	default:
		return rep, fmt.Errorf("%w: unknown type %q", intent.ErrInvalid, in.Type)
	}

	d.reconcile(ctx, invalidated, rep)

	span.SetAttributes(
		attribute.Int("resolved", rep.Resolved),
		attribute.Int("delivered", rep.Delivered),
		attribute.Int("invalidated", rep.Invalidated),
	)
	obs.WithTrace(ctx, d.Log).Info("dispatch cycle completed",
		zap.String("intent_id", in.ID),
		zap.String("type", string(in.Type)),
		zap.Int("resolved", rep.Resolved),
		zap.Int("delivered", rep.Delivered),
		zap.Int("throttled", rep.Throttled),
		zap.Int("failed", rep.Failed),
		zap.Int("invalidated", rep.Invalidated),
		zap.Int("removed", rep.Removed),
	)
	return rep, nil
}

// resolveTargeted looks up every recipient concurrently and concatenates
// the results. Owners without subscriptions contribute nothing; duplicate
// ids in the list resolve once.
func (d *Dispatcher) resolveTargeted(ctx context.Context, userIDs []string) ([]*subscription.Subscription, error) {
	seen := make(map[string]struct{}, len(userIDs))
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		out      []*subscription.Subscription
		firstErr error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(ownerID string) {
			defer wg.Done()
			subs, err := d.Subs.ListByOwner(ctx, ownerID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out = append(out, subs...)
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// deliver pushes to every subscription in sequential batches. Within a
// batch all attempts run concurrently and every outcome is captured before
// the next batch starts; one failure never aborts its siblings. Returns the
// subscriptions whose endpoints the platform declared permanently gone.
func (d *Dispatcher) deliver(ctx context.Context, subs []*subscription.Subscription, payload []byte, rep *delivery.Report) []*subscription.Subscription {
	size := d.batchSize()
	var invalidated []*subscription.Subscription

	for start := 0; start < len(subs); start += size {
		end := start + size
		if end > len(subs) {
			end = len(subs)
		}
		batch := subs[start:end]

		results := make([]attempt, len(batch))
		var wg sync.WaitGroup
		for i, sub := range batch {
			wg.Add(1)
			go func(i int, sub *subscription.Subscription) {
				defer wg.Done()
				status, err := d.Push.Send(ctx, sub, payload)
				results[i] = attempt{sub: sub, outcome: delivery.Classify(status, err), status: status, err: err}
			}(i, sub)
		}
		wg.Wait()

		for _, a := range results {
			switch a.outcome {
			case delivery.Delivered:
				rep.Delivered++
			case delivery.Throttled:
				rep.Throttled++
				d.Log.Warn("delivery throttled",
					zap.String("owner_id", a.sub.OwnerID),
					zap.String("subscription_id", a.sub.ID),
				)
			case delivery.Invalidated:
				rep.Invalidated++
				invalidated = append(invalidated, a.sub)
				d.Log.Info("subscription invalidated by platform",
					zap.String("owner_id", a.sub.OwnerID),
					zap.String("subscription_id", a.sub.ID),
					zap.Int("status", a.status),
				)
			case delivery.Failed:
				rep.Failed++
				d.Log.Error("delivery failed",
					zap.String("owner_id", a.sub.OwnerID),
					zap.String("subscription_id", a.sub.ID),
					zap.Int("status", a.status),
					zap.Error(a.err),
				)
			}
		}
	}
	return invalidated
}

// reconcile removes invalidated subscriptions. A delete that still fails
// after its short retry is logged and abandoned; the next cycle addressing
// the dead endpoint re-attempts it.
func (d *Dispatcher) reconcile(ctx context.Context, invalidated []*subscription.Subscription, rep *delivery.Report) {
	for _, sub := range invalidated {
		err := retry.Do(ctx, func() error {
			return d.Subs.Delete(ctx, sub.OwnerID, sub.Endpoint)
		}, retry.ReconcilePolicy(d.Log))
		if err != nil {
			d.Log.Error("reconcile delete failed",
				zap.String("owner_id", sub.OwnerID),
				zap.String("subscription_id", sub.ID),
				zap.Error(err),
			)
			continue
		}
		rep.Removed++
	}
}

func (d *Dispatcher) batchSize() int {
	if d.BatchSize > 0 {
		return d.BatchSize
	}
	return DefaultBatchSize
}

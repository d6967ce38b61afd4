package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/calder-labs/pushgate/internal/domain/intent"
	kafkax "github.com/calder-labs/pushgate/internal/repository/kafka"
)

// Runner drives the dispatcher from the intent topic: one consumed message
// is one dispatch cycle. Malformed or invalid intents are dropped after a
// warning; a cycle that cannot resolve recipients is returned to the
// consumer for redelivery.
type Runner struct {
	log  *zap.Logger
	cons *kafkax.Consumer
	disp *Dispatcher

	mConsumed    prometheus.Counter
	mInvalid     prometheus.Counter
	mDelivered   prometheus.Counter
	mThrottled   prometheus.Counter
	mFailed      prometheus.Counter
	mInvalidated prometheus.Counter
	mRemoved     prometheus.Counter
	mErrors      prometheus.Counter
	mCycleDur    prometheus.Histogram
}

func NewRunner(log *zap.Logger, cons *kafkax.Consumer, disp *Dispatcher) *Runner {
	return &Runner{
		log:  log,
		cons: cons,
		disp: disp,
		mConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_intents_consumed_total", Help: "Intents consumed from the channel",
		}),
		mInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_intents_invalid_total", Help: "Intents dropped as malformed",
		}),
		mDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_deliveries_ok_total", Help: "Pushes accepted by the platform",
		}),
		mThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_deliveries_throttled_total", Help: "Pushes rate-limited by the platform",
		}),
		mFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_deliveries_failed_total", Help: "Pushes failed with a transient error",
		}),
		mInvalidated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_subscriptions_invalidated_total", Help: "Endpoints reported permanently gone",
		}),
		mRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_subscriptions_removed_total", Help: "Invalidated subscriptions deleted from the registry",
		}),
		mErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_errors_total", Help: "Errors",
		}),
		mCycleDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatcher_cycle_duration_seconds",
			Help:    "Dispatch cycle duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(
		func(ctx context.Context, _ []byte, in *intent.Intent) error {
			r.mConsumed.Inc()
			if err := in.Validate(); err != nil {
				r.mInvalid.Inc()
				r.log.Warn("dropping invalid intent", zap.String("intent_id", in.ID), zap.Error(err))
				return nil
			}
			return r.handleIntent(ctx, in)
		},
	)

	if err := r.cons.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		r.mErrors.Inc()
		r.log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}

func (r *Runner) handleIntent(ctx context.Context, in *intent.Intent) error {
	start := time.Now()
	rep, err := r.disp.Dispatch(ctx, in)
	r.mCycleDur.Observe(time.Since(start).Seconds())

	if rep != nil {
		r.mDelivered.Add(float64(rep.Delivered))
		r.mThrottled.Add(float64(rep.Throttled))
		r.mFailed.Add(float64(rep.Failed))
		r.mInvalidated.Add(float64(rep.Invalidated))
		r.mRemoved.Add(float64(rep.Removed))
	}
	if err != nil {
		r.mErrors.Inc()
		return err
	}
	return nil
}

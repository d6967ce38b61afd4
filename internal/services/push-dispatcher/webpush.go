package dispatcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/calder-labs/pushgate/internal/domain/delivery"
	"github.com/calder-labs/pushgate/internal/domain/subscription"
	"github.com/calder-labs/pushgate/internal/vapid"
)

var _ delivery.Pusher = (*WebPushSender)(nil)

// WebPushSender delivers one encrypted message per attempt through the Web
// Push protocol. Payload encryption and VAPID signing are the library's
// concern; this adapter only supplies key material and bounds each attempt
// with its own timeout.
type WebPushSender struct {
	keys    *vapid.Provider
	ttl     int
	timeout time.Duration
	log     *zap.Logger
}

type SenderConfig struct {
	TTLSeconds int
	Timeout    time.Duration
}

func NewWebPushSender(keys *vapid.Provider, cfg SenderConfig, log *zap.Logger) *WebPushSender {
	if cfg.TTLSeconds <= 0 {
		cfg.TTLSeconds = 86400
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebPushSender{
		keys:    keys,
		ttl:     cfg.TTLSeconds,
		timeout: cfg.Timeout,
		log:     log.With(zap.String("component", "push-dispatcher.webpush")),
	}
}

// Send pushes the payload to one endpoint. The returned status is the
// platform's HTTP status when a response was received, 0 otherwise. A
// timeout yields (0, err) and must classify as a transient failure, never
// as an invalidation.
func (s *WebPushSender) Send(ctx context.Context, sub *subscription.Subscription, payload []byte) (int, error) {
	keys, err := s.keys.Keys()
	if err != nil {
		// Unprovisioned key material fails every attempt; retrying cannot help.
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      keys.Subscriber,
		VAPIDPublicKey:  keys.PublicKey,
		VAPIDPrivateKey: keys.PrivateKey,
		TTL:             s.ttl,
	})
	if err != nil {
		return 0, fmt.Errorf("send push: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, fmt.Errorf("push rejected: status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

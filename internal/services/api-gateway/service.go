package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/calder-labs/pushgate/internal/domain/intent"
	"github.com/calder-labs/pushgate/internal/domain/subscription"
	"github.com/calder-labs/pushgate/internal/obs/retry"
	"github.com/calder-labs/pushgate/internal/vapid"
)

// ErrValidation marks caller mistakes. The HTTP layer maps it to 4xx;
// everything else surfaces as a server error.
var ErrValidation = errors.New("validation")

// Service implements the registration surface: subscription lifecycle,
// sender key lookup, and intent publishing. Writes go straight through the
// registry; publishing only enqueues.
type Service struct {
	Subs   subscription.Repo
	Events intent.Events
	Vapid  *vapid.Provider
	Log    *zap.Logger
}

type SubscribeRequest struct {
	UserID       string           `json:"userId"`
	DeviceID     string           `json:"deviceId"`
	Subscription WireSubscription `json:"subscription"`
}

type WireSubscription struct {
	Endpoint string            `json:"endpoint"`
	Keys     subscription.Keys `json:"keys"`
}

// Subscribe validates and upserts one registration. Re-registering an
// identical (owner, endpoint) pair succeeds and overwrites in place.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if req.Subscription.Endpoint == "" {
		return fmt.Errorf("%w: subscription.endpoint is required", ErrValidation)
	}
	if req.Subscription.Keys.P256dh == "" || req.Subscription.Keys.Auth == "" {
		return fmt.Errorf("%w: subscription.keys.p256dh and subscription.keys.auth are required", ErrValidation)
	}

	sub := &subscription.Subscription{
		OwnerID:  req.UserID,
		DeviceID: req.DeviceID,
		Endpoint: req.Subscription.Endpoint,
		Keys:     req.Subscription.Keys,
	}
	if err := s.Subs.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("store subscription: %w", err)
	}
	s.Log.Info("subscription registered",
		zap.String("owner_id", sub.OwnerID),
		zap.String("device_id", sub.DeviceID),
		zap.String("subscription_id", sub.ID),
	)
	return nil
}

// Unsubscribe removes one registration. Removing an absent registration
// succeeds.
func (s *Service) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrValidation)
	}
	if err := s.Subs.Delete(ctx, userID, endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	s.Log.Info("subscription removed", zap.String("owner_id", userID))
	return nil
}

// SenderPublicKey reports the key clients need to subscribe. It fails with
// vapid.ErrNotConfigured while placeholder key material is in place.
func (s *Service) SenderPublicKey() (string, error) {
	return s.Vapid.PublicKey()
}

// Notify enqueues a targeted intent for the given owners.
func (s *Service) Notify(ctx context.Context, userIDs []string, p intent.Payload) (*intent.Intent, error) {
	in := &intent.Intent{Type: intent.ModeTargeted, UserIDs: userIDs, Notification: p}
	return in, s.publish(ctx, in)
}

// Broadcast enqueues an intent addressing every live subscriber.
func (s *Service) Broadcast(ctx context.Context, p intent.Payload) (*intent.Intent, error) {
	in := &intent.Intent{Type: intent.ModeBroadcast, Notification: p}
	return in, s.publish(ctx, in)
}

func (s *Service) publish(ctx context.Context, in *intent.Intent) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	err := retry.Do(ctx, func() error {
		return s.Events.Publish(ctx, in)
	}, retry.PublishPolicy(s.Log))
	if err != nil {
		return fmt.Errorf("publish intent: %w", err)
	}
	s.Log.Info("intent enqueued",
		zap.String("intent_id", in.ID),
		zap.String("type", string(in.Type)),
		zap.Int("recipients", len(in.UserIDs)),
	)
	return nil
}

package intent

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Mode discriminates how an intent addresses recipients.
type Mode string

const (
	ModeTargeted  Mode = "targeted"
	ModeBroadcast Mode = "broadcast"
)

// Payload is the notification content. Opaque to everything between the
// publisher and the receiving client application.
type Payload struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Icon  string          `json:"icon,omitempty"`
	Badge string          `json:"badge,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Tag   string          `json:"tag,omitempty"`
}

// Intent is one unit of work on the intent channel: a request to notify an
// explicit set of owners (targeted) or every live subscriber (broadcast).
// ID is assigned at publish time and only used for log/trace correlation.
type Intent struct {
	ID           string   `json:"id,omitempty"`
	Type         Mode     `json:"type"`
	UserIDs      []string `json:"userIds,omitempty"`
	Notification Payload  `json:"notification"`
}

// ErrInvalid marks intents rejected before they ever reach the channel.
var ErrInvalid = errors.New("invalid intent")

// Validate checks the intent shape: both modes need a non-empty title and
// body, targeted additionally needs at least one recipient.
func (in *Intent) Validate() error {
	switch in.Type {
	case ModeTargeted:
		if len(in.UserIDs) == 0 {
			return fmt.Errorf("%w: targeted intent requires userIds", ErrInvalid)
		}
		for _, id := range in.UserIDs {
			if id == "" {
				return fmt.Errorf("%w: empty user id", ErrInvalid)
			}
		}
	case ModeBroadcast:
		if len(in.UserIDs) != 0 {
			return fmt.Errorf("%w: broadcast intent must not carry userIds", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalid, in.Type)
	}
	if in.Notification.Title == "" {
		return fmt.Errorf("%w: notification title is required", ErrInvalid)
	}
	if in.Notification.Body == "" {
		return fmt.Errorf("%w: notification body is required", ErrInvalid)
	}
	return nil
}

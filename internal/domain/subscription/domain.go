package subscription

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultDeviceID is stored when a client registers without naming a device.
const DefaultDeviceID = "default"

// TTL is how long a registration stays live without being renewed.
// Re-registration with the same (owner, endpoint) renews it.
const TTL = 365 * 24 * time.Hour

// Keys is the public key material supplied by the receiving platform.
// It is carried opaquely to the delivery client and never interpreted here.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one registered push endpoint for an owner identity.
// At most one live record exists per (OwnerID, Endpoint) pair.
type Subscription struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	DeviceID  string    `json:"device_id"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DeriveID returns the stable identifier for an (owner, endpoint) pair.
// The endpoint is the natural dedup key within an owner; hashing keeps the
// primary key short and opaque regardless of endpoint length.
func DeriveID(ownerID, endpoint string) string {
	sum := sha256.Sum256([]byte(ownerID + "\n" + endpoint))
	return hex.EncodeToString(sum[:])
}

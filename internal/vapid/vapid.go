// Package vapid holds the sender key material used to authenticate web
// push deliveries. Keys are provisioned out of band (config or env) and
// loaded once for the life of the process.
package vapid

import (
	"errors"
	"strings"
	"sync"
)

// ErrNotConfigured is returned while the deployment still carries the
// placeholder key material. Nothing can be delivered until real keys are
// provisioned, so callers should fail fast rather than retry.
var ErrNotConfigured = errors.New("vapid keys not configured")

// Placeholder is the value shipped in default configs.
const Placeholder = "REPLACE_WITH_VAPID_KEY"

type Keys struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

// Provider resolves the key material exactly once. Concurrent first reads
// collapse to a single resolution; the result never changes afterwards.
type Provider struct {
	resolve func() (Keys, error)

	once sync.Once
	keys Keys
	err  error
}

func NewProvider(resolve func() (Keys, error)) *Provider {
	return &Provider{resolve: resolve}
}

// FromConfig builds a provider over statically configured keys.
func FromConfig(publicKey, privateKey, subscriber string) *Provider {
	return NewProvider(func() (Keys, error) {
		return Keys{PublicKey: publicKey, PrivateKey: privateKey, Subscriber: subscriber}, nil
	})
}

// Keys returns the cached key material, resolving it on first use.
func (p *Provider) Keys() (Keys, error) {
	p.once.Do(func() {
		p.keys, p.err = p.resolve()
		if p.err != nil {
			return
		}
		if !usable(p.keys.PublicKey) || !usable(p.keys.PrivateKey) {
			p.err = ErrNotConfigured
		}
	})
	return p.keys, p.err
}

// PublicKey returns the key clients need to construct a subscription.
func (p *Provider) PublicKey() (string, error) {
	k, err := p.Keys()
	if err != nil {
		return "", err
	}
	return k.PublicKey, nil
}

func usable(key string) bool {
	return key != "" && !strings.Contains(key, "REPLACE_WITH")
}

package vapid

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Placeholder(t *testing.T) {
	p := FromConfig(Placeholder, Placeholder, "ops@example.com")

	_, err := p.PublicKey()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProvider_MissingPrivateKey(t *testing.T) {
	p := FromConfig("BPub", "", "ops@example.com")

	_, err := p.Keys()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProvider_Configured(t *testing.T) {
	p := FromConfig("BPub", "priv", "ops@example.com")

	key, err := p.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, "BPub", key)
}

func TestProvider_ResolvesOnce(t *testing.T) {
	var calls int32
	p := NewProvider(func() (Keys, error) {
		atomic.AddInt32(&calls, 1)
		return Keys{PublicKey: "BPub", PrivateKey: "priv"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Keys()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveID(t *testing.T) {
	a := DeriveID("alice", "https://push.example.com/ep/1")

	assert.Equal(t, a, DeriveID("alice", "https://push.example.com/ep/1"), "stable for same pair")
	assert.NotEqual(t, a, DeriveID("alice", "https://push.example.com/ep/2"), "distinct per endpoint")
	assert.NotEqual(t, a, DeriveID("bob", "https://push.example.com/ep/1"), "distinct per owner")
	assert.Len(t, a, 64)
}

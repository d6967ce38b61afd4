package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler(t *testing.T) {
	type msg struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}

	var got *msg
	h := JSONHandler(func(_ context.Context, key []byte, m *msg) error {
		assert.Equal(t, "k1", string(key))
		got = m
		return nil
	})

	require.NoError(t, h(context.Background(), []byte("k1"), []byte(`{"id":"a","kind":"b"}`)))
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, "b", got.Kind)
}

func TestJSONHandler_Malformed(t *testing.T) {
	h := JSONHandler(func(context.Context, []byte, *struct{}) error {
		t.Fatal("handler must not run on malformed payloads")
		return nil
	})
	assert.Error(t, h(context.Background(), nil, []byte(`{`)))
}

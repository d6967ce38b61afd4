package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	errAny := errors.New("boom")

	cases := []struct {
		name   string
		status int
		err    error
		want   Outcome
	}{
		{"accepted", 201, nil, Delivered},
		{"gone", 410, errAny, Invalidated},
		{"not found", 404, errAny, Invalidated},
		{"rate limited", 429, errAny, Throttled},
		{"server error", 500, errAny, Failed},
		{"bad request", 400, errAny, Failed},
		{"transport error without status", 0, errAny, Failed},
		{"timeout without status", 0, context.DeadlineExceeded, Failed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.status, tc.err))
		})
	}
}

func TestClassify_TimeoutNeverInvalidates(t *testing.T) {
	// Deletion may only be driven by an explicit gone status from the
	// platform; a timed-out attempt has no status at all.
	got := Classify(0, context.DeadlineExceeded)
	assert.NotEqual(t, Invalidated, got)
}

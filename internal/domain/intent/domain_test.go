package intent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	ok := Payload{Title: "Turn resolved", Body: "Your orders were processed"}

	cases := []struct {
		name    string
		in      Intent
		wantErr bool
	}{
		{"targeted ok", Intent{Type: ModeTargeted, UserIDs: []string{"a"}, Notification: ok}, false},
		{"broadcast ok", Intent{Type: ModeBroadcast, Notification: ok}, false},
		{"targeted without recipients", Intent{Type: ModeTargeted, Notification: ok}, true},
		{"targeted with empty id", Intent{Type: ModeTargeted, UserIDs: []string{"a", ""}, Notification: ok}, true},
		{"broadcast with recipients", Intent{Type: ModeBroadcast, UserIDs: []string{"a"}, Notification: ok}, true},
		{"unknown type", Intent{Type: "direct", Notification: ok}, true},
		{"missing title", Intent{Type: ModeBroadcast, Notification: Payload{Body: "b"}}, true},
		{"missing body", Intent{Type: ModeBroadcast, Notification: Payload{Title: "t"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWireFormat(t *testing.T) {
	raw := `{"type":"targeted","userIds":["alice","bob"],"notification":{"title":"hi","body":"there","tag":"turn-7","data":{"turn":7}}}`

	var in Intent
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	require.NoError(t, in.Validate())

	assert.Equal(t, ModeTargeted, in.Type)
	assert.Equal(t, []string{"alice", "bob"}, in.UserIDs)
	assert.Equal(t, "hi", in.Notification.Title)
	assert.Equal(t, "turn-7", in.Notification.Tag)
	assert.JSONEq(t, `{"turn":7}`, string(in.Notification.Data))
}

func TestWireFormat_Broadcast(t *testing.T) {
	raw := `{"type":"broadcast","notification":{"title":"maintenance","body":"back at noon"}}`

	var in Intent
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	require.NoError(t, in.Validate())
	assert.Equal(t, ModeBroadcast, in.Type)
	assert.Empty(t, in.UserIDs)
}

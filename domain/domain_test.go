package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopePortPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr bool
	}{
		{name: "number", payload: `{"payload":6001}`, want: 6001},
		{name: "string", payload: `{"payload":"6001"}`, want: 6001},
		{name: "garbage", payload: `{"payload":"abc"}`, wantErr: true},
		{name: "absent", payload: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &env))

			port, err := env.PortPayload()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, port)
		})
	}
}

func TestEnvelopeStringPayload(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"payload":"Alpha"}`), &env))
	assert.Equal(t, "Alpha", env.StringPayload())

	env = Envelope{}
	assert.Equal(t, "", env.StringPayload())
}

func TestIDList(t *testing.T) {
	tests := []struct {
		name string
		data string
		want IDList
	}{
		{name: "single id", data: `"p1"`, want: IDList{"p1"}},
		{name: "list", data: `["p1","p2"]`, want: IDList{"p1", "p2"}},
		{name: "empty list", data: `[]`, want: IDList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l IDList
			require.NoError(t, json.Unmarshal([]byte(tt.data), &l))
			assert.Equal(t, tt.want, l)
		})
	}

	var l IDList
	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}

func TestRoomSummaryWireKeys(t *testing.T) {
	data, err := json.Marshal(RoomSummary{
		ID:          "room-1",
		Name:        "Alpha",
		PlayerCount: 1,
		Capacity:    2,
	})
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Contains(t, keys, "n_players")
	assert.Equal(t, float64(1), keys["n_players"])
	assert.NotContains(t, keys, "player_count")
}

func TestErrorMatchingByCode(t *testing.T) {
	wrapped := WrapDeliveryFailure(errors.New("socket closed"))

	assert.ErrorIs(t, wrapped, ErrRelayDeliveryFailed)
	assert.NotErrorIs(t, wrapped, ErrRoomFull)
	assert.Contains(t, wrapped.Error(), "socket closed")

	reWrapped := fmt.Errorf("handling datagram: %w", ErrPlayerNotInRoom)
	assert.ErrorIs(t, reWrapped, ErrPlayerNotInRoom)
}

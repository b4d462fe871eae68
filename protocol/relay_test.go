package protocol

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabriel-milan/card-game-server/domain"
)

type relayCall struct {
	senderID   string
	roomID     string
	recipients []string
	message    string
}

type mockRelayer struct {
	rooms   map[string]bool
	calls   []relayCall
	sendErr error
}

func (m *mockRelayer) RoomExists(id string) bool { return m.rooms[id] }

func (m *mockRelayer) SendToRoom(senderID, roomID string, recipients []string, message string) error {
	m.calls = append(m.calls, relayCall{senderID: senderID, roomID: roomID, recipients: recipients, message: message})
	return m.sendErr
}

func relayRemote() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50001}
}

func TestRelay_Send(t *testing.T) {
	m := &mockRelayer{rooms: map[string]bool{"room-1": true}}
	h := NewRelayHandler(m)

	h.Handle(relayRemote(), []byte(`{"action":"send","identifier":"p1","room_id":"room-1","payload":{"message":"hi"}}`))

	assert.Equal(t, []relayCall{{senderID: "p1", roomID: "room-1", message: "hi"}}, m.calls)
}

func TestRelay_SendTo(t *testing.T) {
	tests := []struct {
		name           string
		recipients     string
		wantRecipients []string
	}{
		{name: "single id", recipients: `"p2"`, wantRecipients: []string{"p2"}},
		{name: "id list", recipients: `["p2","p3"]`, wantRecipients: []string{"p2", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockRelayer{rooms: map[string]bool{"room-1": true}}
			h := NewRelayHandler(m)

			data := []byte(`{"action":"sendto","identifier":"p1","room_id":"room-1","payload":{"message":"psst","recipients":` + tt.recipients + `}}`)
			h.Handle(relayRemote(), data)

			assert.Equal(t, []relayCall{{
				senderID:   "p1",
				roomID:     "room-1",
				recipients: tt.wantRecipients,
				message:    "psst",
			}}, m.calls)
		})
	}
}

func TestRelay_SendToWithoutRecipientsDropped(t *testing.T) {
	m := &mockRelayer{rooms: map[string]bool{"room-1": true}}
	h := NewRelayHandler(m)

	// A directed message with no recipients field must not turn into a
	// room-wide broadcast.
	h.Handle(relayRemote(), []byte(`{"action":"sendto","identifier":"p1","room_id":"room-1","payload":{"message":"secret"}}`))

	assert.Empty(t, m.calls)
}

func TestRelay_SendToEmptyRecipients(t *testing.T) {
	m := &mockRelayer{rooms: map[string]bool{"room-1": true}}
	h := NewRelayHandler(m)

	// An explicit empty list is a valid request that delivers to nobody.
	h.Handle(relayRemote(), []byte(`{"action":"sendto","identifier":"p1","room_id":"room-1","payload":{"message":"hi","recipients":[]}}`))

	assert.Equal(t, []relayCall{{
		senderID:   "p1",
		roomID:     "room-1",
		recipients: []string{},
		message:    "hi",
	}}, m.calls)
}

func TestRelay_UnknownRoomDropped(t *testing.T) {
	m := &mockRelayer{rooms: map[string]bool{}}
	h := NewRelayHandler(m)

	h.Handle(relayRemote(), []byte(`{"action":"send","identifier":"p1","room_id":"ghost","payload":{"message":"hi"}}`))

	assert.Empty(t, m.calls)
}

func TestRelay_MalformedDropped(t *testing.T) {
	m := &mockRelayer{rooms: map[string]bool{"room-1": true}}
	h := NewRelayHandler(m)

	h.Handle(relayRemote(), []byte("not json"))
	h.Handle(relayRemote(), []byte(`{"action":"send","identifier":"p1","room_id":"room-1","payload":"not an object"}`))

	assert.Empty(t, m.calls)
}

func TestRelay_UnknownActionDropped(t *testing.T) {
	m := &mockRelayer{rooms: map[string]bool{"room-1": true}}
	h := NewRelayHandler(m)

	h.Handle(relayRemote(), []byte(`{"action":"shout","identifier":"p1","room_id":"room-1","payload":{"message":"hi"}}`))

	assert.Empty(t, m.calls)
}

func TestRelay_RegistryErrorDropped(t *testing.T) {
	m := &mockRelayer{
		rooms:   map[string]bool{"room-1": true},
		sendErr: domain.ErrPlayerNotInRoom,
	}
	h := NewRelayHandler(m)

	// The error is logged and swallowed; the channel never replies.
	h.Handle(relayRemote(), []byte(`{"action":"send","identifier":"p1","room_id":"room-1","payload":{"message":"hi"}}`))

	assert.Len(t, m.calls, 1)
}

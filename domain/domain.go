// Package domain holds the wire types and interfaces shared by the control
// and relay channels.
package domain

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
)

// Control channel actions.
const (
	ActionRegister = "register"
	ActionJoin     = "join"
	ActionAutojoin = "autojoin"
	ActionGetRooms = "get_rooms"
	ActionCreate   = "create"
	ActionLeave    = "leave"
)

// Relay channel actions.
const (
	ActionSend   = "send"
	ActionSendTo = "sendto"
)

// Envelope is one decoded wire request. Both channels share the same shape;
// the payload's meaning depends on the action.
type Envelope struct {
	Action     string          `json:"action"`
	Identifier string          `json:"identifier,omitempty"`
	RoomID     string          `json:"room_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// PortPayload decodes the payload as a port number. Clients send either a
// bare number or a quoted string.
func (e Envelope) PortPayload() (int, error) {
	var port int
	if err := json.Unmarshal(e.Payload, &port); err == nil {
		return port, nil
	}
	var s string
	if err := json.Unmarshal(e.Payload, &s); err != nil {
		return 0, fmt.Errorf("decode port payload: %w", err)
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("decode port payload: %w", err)
	}
	return port, nil
}

// StringPayload decodes the payload as a plain string, returning "" when the
// payload is absent or not a string.
func (e Envelope) StringPayload() string {
	var s string
	if err := json.Unmarshal(e.Payload, &s); err != nil {
		return ""
	}
	return s
}

// RelayPayload is the payload of send/sendto datagrams.
type RelayPayload struct {
	Message    string `json:"message"`
	Recipients IDList `json:"recipients,omitempty"`
}

// IDList accepts either a single id or a list of ids on the wire.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = IDList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = IDList(many)
	return nil
}

// Reply is the control channel response.
type Reply struct {
	Success bool `json:"success"`
	Message any  `json:"message"`
}

// RoomSummary is one entry of a get_rooms reply. The n_players key is what
// deployed clients decode.
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"n_players"`
	Capacity    int    `json:"capacity"`
}

// Matchmaker is the registry surface the control dispatcher drives.
type Matchmaker interface {
	Register(controlAddr net.Addr, relayPort int) string
	KnowsPlayer(id string) bool
	JoinRoom(playerID, roomID string) (string, error)
	CreateRoom(name string) string
	LeaveRoom(playerID, roomID string) error
	Summaries() []RoomSummary
}

// Relayer is the registry surface the relay dispatcher drives.
type Relayer interface {
	RoomExists(id string) bool
	SendToRoom(senderID, roomID string, recipients []string, message string) error
}

// Sender delivers one relay datagram to a player's advertised endpoint.
type Sender interface {
	Send(addr *net.UDPAddr, senderID, message string) error
}

// Event types published by the registry.
const (
	EventPlayerRegistered = "player_registered"
	EventRoomCreated      = "room_created"
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventRoomsReclaimed   = "rooms_reclaimed"
)

// Event is a registry state change, published for monitoring clients.
type Event struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// EventSink receives registry events. Publish must not block.
type EventSink interface {
	Publish(Event)
}

// Package protocol decodes wire envelopes and drives the registry, keeping
// the listeners as thin transport loops.
package protocol

import (
	"encoding/json"
	"log/slog"
	"net"

	"github.com/gabriel-milan/card-game-server/domain"
)

// Canned failure replies.
const (
	msgUnknownPlayer = "Unknown Player ID"
	msgMustRegister  = "You must register"
	msgMalformed     = "Malformed request"
)

// ControlHandler dispatches one control request to the registry and produces
// the reply to write back.
type ControlHandler struct {
	registry domain.Matchmaker
}

func NewControlHandler(m domain.Matchmaker) *ControlHandler {
	return &ControlHandler{registry: m}
}

// Handle decodes one request from remote and returns its reply. It never
// fails: malformed or unauthorized requests map to failure replies.
func (h *ControlHandler) Handle(remote net.Addr, data []byte) domain.Reply {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("malformed control request", "remote", remote, "error", err)
		return domain.Reply{Success: false, Message: msgMalformed}
	}

	if env.Action == domain.ActionRegister {
		port, err := env.PortPayload()
		if err != nil {
			slog.Warn("register without a relay port", "remote", remote, "error", err)
			return domain.Reply{Success: false, Message: msgMalformed}
		}
		id := h.registry.Register(remote, port)
		return domain.Reply{Success: true, Message: id}
	}

	if env.Identifier == "" || !h.registry.KnowsPlayer(env.Identifier) {
		slog.Warn("unknown player id", "remote", remote, "playerId", env.Identifier, "action", env.Action)
		return domain.Reply{Success: false, Message: msgUnknownPlayer}
	}

	switch env.Action {
	case domain.ActionJoin:
		roomID := env.StringPayload()
		if roomID == "" {
			return domain.Reply{Success: false, Message: roomID}
		}
		joined, err := h.registry.JoinRoom(env.Identifier, roomID)
		if err != nil {
			slog.Warn("join failed", "playerId", env.Identifier, "roomId", roomID, "error", err)
			return domain.Reply{Success: false, Message: roomID}
		}
		return domain.Reply{Success: true, Message: joined}

	case domain.ActionAutojoin:
		joined, err := h.registry.JoinRoom(env.Identifier, "")
		if err != nil {
			// Players are never removed, so the lookup cannot miss here.
			slog.Error("autojoin failed", "playerId", env.Identifier, "error", err)
			return domain.Reply{Success: false, Message: msgUnknownPlayer}
		}
		return domain.Reply{Success: true, Message: joined}

	case domain.ActionGetRooms:
		return domain.Reply{Success: true, Message: h.registry.Summaries()}

	case domain.ActionCreate:
		roomID := h.registry.CreateRoom(env.StringPayload())
		if _, err := h.registry.JoinRoom(env.Identifier, roomID); err != nil {
			slog.Error("creator could not join own room", "playerId", env.Identifier, "roomId", roomID, "error", err)
		}
		return domain.Reply{Success: true, Message: roomID}

	case domain.ActionLeave:
		if err := h.registry.LeaveRoom(env.Identifier, env.RoomID); err != nil {
			slog.Warn("leave failed", "playerId", env.Identifier, "roomId", env.RoomID, "error", err)
			return domain.Reply{Success: false, Message: env.RoomID}
		}
		return domain.Reply{Success: true, Message: env.RoomID}

	default:
		slog.Warn("unknown action", "playerId", env.Identifier, "action", env.Action)
		return domain.Reply{Success: false, Message: msgMustRegister}
	}
}

// EncodeReply marshals a reply for the wire.
func EncodeReply(r domain.Reply) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		// Replies are built from plain values; this cannot happen for any
		// dispatch table row.
		slog.Error("encode reply", "error", err)
		data, _ = json.Marshal(domain.Reply{Success: false, Message: msgMalformed})
	}
	return data
}

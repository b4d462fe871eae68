package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"

	"github.com/gabriel-milan/card-game-server/domain"
)

// RelayHandler dispatches one inbound datagram. The relay channel is
// one-way: every failure is logged and the datagram dropped.
type RelayHandler struct {
	registry domain.Relayer
}

func NewRelayHandler(r domain.Relayer) *RelayHandler {
	return &RelayHandler{registry: r}
}

// Handle processes one datagram from remote.
func (h *RelayHandler) Handle(remote net.Addr, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("malformed relay datagram", "remote", remote, "error", err)
		return
	}

	if !h.registry.RoomExists(env.RoomID) {
		slog.Error("relay for unknown room", "roomId", env.RoomID, "playerId", env.Identifier)
		return
	}

	var payload domain.RelayPayload
	if env.Payload != nil {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			slog.Warn("malformed relay payload", "remote", remote, "playerId", env.Identifier, "error", err)
			return
		}
	}

	switch env.Action {
	case domain.ActionSend:
		slog.Debug("relaying to room", "roomId", env.RoomID, "playerId", env.Identifier)
		if err := h.registry.SendToRoom(env.Identifier, env.RoomID, nil, payload.Message); err != nil {
			h.logFailure(env, err)
		}

	case domain.ActionSendTo:
		// A directed message must carry an explicit recipient list; without
		// one, nil would read as broadcast-to-all downstream.
		if payload.Recipients == nil {
			slog.Warn("sendto without recipients", "roomId", env.RoomID, "playerId", env.Identifier)
			return
		}
		slog.Debug("relaying to recipients", "roomId", env.RoomID, "playerId", env.Identifier, "recipients", len(payload.Recipients))
		if err := h.registry.SendToRoom(env.Identifier, env.RoomID, payload.Recipients, payload.Message); err != nil {
			h.logFailure(env, err)
		}

	default:
		slog.Warn("unknown relay action", "action", env.Action, "playerId", env.Identifier)
	}
}

func (h *RelayHandler) logFailure(env domain.Envelope, err error) {
	if errors.Is(err, domain.ErrRelayDeliveryFailed) {
		slog.Error("relay failed", "roomId", env.RoomID, "playerId", env.Identifier, "error", err)
		return
	}
	slog.Warn("relay dropped", "roomId", env.RoomID, "playerId", env.Identifier, "error", err)
}

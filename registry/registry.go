// Package registry owns all room and player state. Every mutation is
// serialized through a single lock shared by the control and relay paths.
package registry

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/gabriel-milan/card-game-server/domain"
)

// Player is one registered client. Players are immutable after creation and
// are never removed for the lifetime of the registry.
type Player struct {
	ID          string
	ControlAddr string
	RelayAddr   *net.UDPAddr
}

// Room is a capacity-bounded set of players. Member order is join order.
type Room struct {
	ID       string
	Name     string
	Capacity int
	members  []*Player
}

// Full reports whether the room is at capacity.
func (r *Room) Full() bool { return len(r.members) >= r.Capacity }

// Empty reports whether the room has no members.
func (r *Room) Empty() bool { return len(r.members) == 0 }

// MemberIDs returns the member ids in join order.
func (r *Room) MemberIDs() []string {
	ids := make([]string, len(r.members))
	for i, p := range r.members {
		ids[i] = p.ID
	}
	return ids
}

// Registry is the single source of truth for rooms and players.
type Registry struct {
	mu       sync.Mutex
	capacity int
	players  []*Player
	rooms    []*Room
	sender   domain.Sender
	events   domain.EventSink
}

// New creates a registry. capacity applies to every created room. events may
// be nil when no monitoring feed is attached.
func New(capacity int, sender domain.Sender, events domain.EventSink) *Registry {
	return &Registry{
		capacity: capacity,
		sender:   sender,
		events:   events,
	}
}

func (g *Registry) publish(evt domain.Event) {
	if g.events != nil {
		g.events.Publish(evt)
	}
}

// Register creates a new player reachable for relay at the control address'
// host and the advertised port. Registration never fails and never
// deduplicates: registering twice yields two players.
func (g *Registry) Register(controlAddr net.Addr, relayPort int) string {
	host := "127.0.0.1"
	control := ""
	if controlAddr != nil {
		control = controlAddr.String()
		if h, _, err := net.SplitHostPort(control); err == nil {
			host = h
		}
	}
	player := &Player{
		ID:          uuid.New().String(),
		ControlAddr: control,
		RelayAddr:   &net.UDPAddr{IP: net.ParseIP(host), Port: relayPort},
	}

	g.mu.Lock()
	g.players = append(g.players, player)
	count := len(g.players)
	g.mu.Unlock()

	slog.Info("player registered", "playerId", player.ID, "relayAddr", player.RelayAddr, "players", count)
	g.publish(domain.Event{Type: domain.EventPlayerRegistered, PlayerID: player.ID})
	return player.ID
}

// FindPlayer looks a player up by id. The returned player must be treated as
// read-only.
func (g *Registry) FindPlayer(id string) (*Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.findPlayerLocked(id)
	return p, p != nil
}

// KnowsPlayer reports whether a player id is registered.
func (g *Registry) KnowsPlayer(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findPlayerLocked(id) != nil
}

// FindRoom looks a room up by id. The returned room must be treated as
// read-only.
func (g *Registry) FindRoom(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.findRoomLocked(id)
	return r, r != nil
}

// RoomExists reports whether a room id is known.
func (g *Registry) RoomExists(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findRoomLocked(id) != nil
}

func (g *Registry) findPlayerLocked(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Registry) findRoomLocked(id string) *Room {
	for _, r := range g.rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (g *Registry) createRoomLocked(name string) *Room {
	room := &Room{
		ID:       uuid.New().String(),
		Capacity: g.capacity,
	}
	if name == "" {
		name = room.ID
	}
	room.Name = name
	g.rooms = append(g.rooms, room)
	return room
}

// findOrCreateRoomLocked resolves a room for matchmaking: an exact id match
// first, then the first non-full room in insertion order, then a new room.
func (g *Registry) findOrCreateRoomLocked(id string) *Room {
	if room := g.findRoomLocked(id); room != nil {
		return room
	}
	for _, room := range g.rooms {
		if !room.Full() {
			return room
		}
	}
	room := g.createRoomLocked("")
	slog.Info("room created", "roomId", room.ID, "name", room.Name, "capacity", room.Capacity)
	g.publish(domain.Event{Type: domain.EventRoomCreated, RoomID: room.ID})
	return room
}

// CreateRoom always creates a new room with the default capacity. The name
// defaults to the generated id.
func (g *Registry) CreateRoom(name string) string {
	g.mu.Lock()
	room := g.createRoomLocked(name)
	g.mu.Unlock()

	slog.Info("room created", "roomId", room.ID, "name", room.Name, "capacity", room.Capacity)
	g.publish(domain.Event{Type: domain.EventRoomCreated, RoomID: room.ID})
	return room.ID
}

// JoinRoom adds a player to a room. An empty roomID means matchmaking, which
// never fails; an explicit roomID must name an existing, non-full room. A
// player belongs to at most one room: joining moves them out of any previous
// room in the same locked step.
func (g *Registry) JoinRoom(playerID, roomID string) (string, error) {
	g.mu.Lock()

	player := g.findPlayerLocked(playerID)
	if player == nil {
		g.mu.Unlock()
		return "", domain.ErrPlayerNotFound
	}

	var room *Room
	if roomID != "" {
		room = g.findRoomLocked(roomID)
		if room == nil {
			g.mu.Unlock()
			return "", domain.ErrRoomNotFound
		}
		if room.Full() {
			g.mu.Unlock()
			return "", domain.ErrRoomFull
		}
	} else {
		room = g.findOrCreateRoomLocked("")
	}

	left := g.removeFromRoomsLocked(player)
	room.members = append(room.members, player)
	g.mu.Unlock()

	if left != "" && left != room.ID {
		slog.Info("player left", "playerId", playerID, "roomId", left)
		g.publish(domain.Event{Type: domain.EventPlayerLeft, PlayerID: playerID, RoomID: left})
	}
	slog.Info("player joined", "playerId", playerID, "roomId", room.ID)
	g.publish(domain.Event{Type: domain.EventPlayerJoined, PlayerID: playerID, RoomID: room.ID})
	return room.ID, nil
}

// removeFromRoomsLocked removes the player from whichever room currently
// holds them and returns that room's id, or "" if they were in none.
func (g *Registry) removeFromRoomsLocked(player *Player) string {
	for _, room := range g.rooms {
		for i, member := range room.members {
			if member.ID == player.ID {
				room.members = append(room.members[:i], room.members[i+1:]...)
				return room.ID
			}
		}
	}
	return ""
}

// LeaveRoom removes a player from a room they are a member of.
func (g *Registry) LeaveRoom(playerID, roomID string) error {
	g.mu.Lock()

	player := g.findPlayerLocked(playerID)
	if player == nil {
		g.mu.Unlock()
		return domain.ErrPlayerNotFound
	}
	room := g.findRoomLocked(roomID)
	if room == nil {
		g.mu.Unlock()
		return domain.ErrRoomNotFound
	}

	for i, member := range room.members {
		if member.ID == playerID {
			room.members = append(room.members[:i], room.members[i+1:]...)
			g.mu.Unlock()

			slog.Info("player left", "playerId", playerID, "roomId", roomID)
			g.publish(domain.Event{Type: domain.EventPlayerLeft, PlayerID: playerID, RoomID: roomID})
			return nil
		}
	}
	g.mu.Unlock()
	return domain.ErrPlayerNotInRoom
}

// ReclaimEmptyRooms removes every empty room and returns how many were
// removed. Meant to run periodically from the process lifecycle.
func (g *Registry) ReclaimEmptyRooms() int {
	g.mu.Lock()
	kept := g.rooms[:0]
	removed := 0
	for _, room := range g.rooms {
		if room.Empty() {
			removed++
			continue
		}
		kept = append(kept, room)
	}
	g.rooms = kept
	g.mu.Unlock()

	if removed > 0 {
		slog.Info("reclaimed empty rooms", "count", removed)
		g.publish(domain.Event{Type: domain.EventRoomsReclaimed, Count: removed})
	}
	return removed
}

// SendToRoom relays a message from a room member to recipients within the
// room. recipients == nil means every current member, the sender included.
// Endpoints are snapshotted under the lock; the datagrams go out after it is
// released. Every recipient is attempted even when one send fails.
func (g *Registry) SendToRoom(senderID, roomID string, recipients []string, message string) error {
	g.mu.Lock()

	room := g.findRoomLocked(roomID)
	if room == nil {
		g.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if g.findPlayerLocked(senderID) == nil {
		g.mu.Unlock()
		return domain.ErrPlayerNotFound
	}

	member := false
	for _, m := range room.members {
		if m.ID == senderID {
			member = true
			break
		}
	}
	if !member {
		g.mu.Unlock()
		return domain.ErrPlayerNotInRoom
	}

	var wanted map[string]bool
	if recipients != nil {
		wanted = make(map[string]bool, len(recipients))
		for _, id := range recipients {
			wanted[id] = true
		}
	}
	targets := make([]*net.UDPAddr, 0, len(room.members))
	for _, m := range room.members {
		if wanted == nil || wanted[m.ID] {
			targets = append(targets, m.RelayAddr)
		}
	}
	g.mu.Unlock()

	var sendErrs []error
	for _, addr := range targets {
		if err := g.sender.Send(addr, senderID, message); err != nil {
			slog.Error("relay send failed", "addr", addr, "senderId", senderID, "error", err)
			sendErrs = append(sendErrs, err)
		}
	}
	if len(sendErrs) > 0 {
		return domain.WrapDeliveryFailure(errors.Join(sendErrs...))
	}
	return nil
}

// Summaries returns a snapshot of all rooms for get_rooms replies.
func (g *Registry) Summaries() []domain.RoomSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	summaries := make([]domain.RoomSummary, len(g.rooms))
	for i, room := range g.rooms {
		summaries[i] = domain.RoomSummary{
			ID:          room.ID,
			Name:        room.Name,
			PlayerCount: len(room.members),
			Capacity:    room.Capacity,
		}
	}
	return summaries
}

// Stats returns the current room and player counts.
func (g *Registry) Stats() (rooms, players int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms), len(g.players)
}

package main

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"zonefall/server/internal/loot"
	"zonefall/server/internal/protocol"
)

type phase string

const (
	phaseLobby       phase = "lobby"
	phaseCountdown   phase = "countdown"
	phaseExploration phase = "exploration"
	phaseFighting    phase = "fighting"
	phaseFinished    phase = "finished"
)

// listingStatus collapses the in-match phases for the public room list.
func (p phase) listingStatus() string {
	switch p {
	case phaseExploration, phaseFighting:
		return "playing"
	default:
		return string(p)
	}
}

// inMatch reports whether a round is currently being played.
func (p phase) inMatch() bool {
	return p == phaseExploration || p == phaseFighting
}

// chestState is one lootable container. Loot is rolled once at round setup;
// Opened is a one-way transition.
type chestState struct {
	X        float64
	Z        float64
	Opened   bool
	OpenedBy string
	Loot     []loot.Stack
}

// Room owns all state for one match lobby. Every mutation happens under mu,
// held for the duration of a tick or a message handler, so a tick and a
// handler never touch the room concurrently.
type Room struct {
	mu sync.Mutex

	cfg       Config
	lootTable loot.Table

	code      string
	name      string
	hostID    string
	players   map[string]*playerState
	clients   map[string]*client
	seed      int64
	rng       *rand.Rand
	createdAt time.Time

	phase         phase
	round         int
	phaseTicks    int // ticks remaining in countdown or exploration
	fightingTicks int // ticks elapsed in the current fighting phase
	border        borderState
	chests        []chestState
	killFeed      []killFeedEntry

	joinCounter  uint64
	lastActivity time.Time

	stopTick chan struct{}
	ticking  bool
	deleted  bool
}

func newRoom(code, name string, cfg Config, table loot.Table, seed int64) *Room {
	now := time.Now()
	return &Room{
		cfg:          cfg,
		lootTable:    table,
		code:         code,
		name:         name,
		players:      make(map[string]*playerState),
		clients:      make(map[string]*client),
		seed:         seed,
		rng:          rand.New(rand.NewSource(seed)),
		createdAt:    now,
		phase:        phaseLobby,
		border:       newBorder(cfg),
		lastActivity: now,
	}
}

// touchLocked bumps the idle-sweep clock.
func (r *Room) touchLocked() {
	r.lastActivity = time.Now()
}

// addPlayerLocked registers a player; the first member becomes host.
func (r *Room) addPlayerLocked(id, name string) *playerState {
	r.joinCounter++
	p := &playerState{
		ID:            id,
		Name:          name,
		Connected:     true,
		Alive:         true,
		Health:        playerMaxHealth,
		MaxHealth:     playerMaxHealth,
		joinOrder:     r.joinCounter,
		lastHeartbeat: time.Now(),
	}
	r.players[id] = p
	if r.hostID == "" {
		r.hostID = id
	}
	r.touchLocked()
	return p
}

// removePlayerLocked drops a player outright. If the host leaves, the host
// role transfers to the next-joined remaining member. Returns the new host
// id (empty when unchanged) and whether the room is now empty.
func (r *Room) removePlayerLocked(id string) (newHost string, empty bool) {
	if _, ok := r.players[id]; !ok {
		return "", len(r.players) == 0
	}
	delete(r.players, id)
	if cl, ok := r.clients[id]; ok {
		delete(r.clients, id)
		cl.close()
	}
	r.touchLocked()

	if len(r.players) == 0 {
		return "", true
	}
	if r.hostID == id {
		var next *playerState
		for _, p := range r.players {
			if next == nil || p.joinOrder < next.joinOrder {
				next = p
			}
		}
		r.hostID = next.ID
		newHost = next.ID
	}
	return newHost, false
}

// bindClientLocked attaches a connection to a player, replacing and closing
// any stale connection atomically so it can no longer receive deliveries.
func (r *Room) bindClientLocked(playerID string, cl *client) {
	if old, ok := r.clients[playerID]; ok && old != cl {
		old.close()
	}
	r.clients[playerID] = cl
	if p, ok := r.players[playerID]; ok {
		p.Connected = true
		p.lastHeartbeat = time.Now()
	}
	r.touchLocked()
}

// dropClientLocked marks a player disconnected but keeps its record and
// gameplay state for reconnection.
func (r *Room) dropClientLocked(playerID string, cl *client) {
	if current, ok := r.clients[playerID]; ok && current == cl {
		delete(r.clients, playerID)
	}
	if p, ok := r.players[playerID]; ok {
		p.Connected = false
		p.Ready = false
	}
	r.touchLocked()
}

// aliveConnectedLocked counts players that are both alive and connected.
// Disconnected players never hold up a round end.
func (r *Room) aliveConnectedLocked() []*playerState {
	alive := make([]*playerState, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive && p.Connected {
			alive = append(alive, p)
		}
	}
	return alive
}

// broadcastLocked enqueues a message to every bound connection. Sends are
// channel enqueues, never network I/O, so holding mu here is safe; a client
// whose queue is full is dropped rather than awaited.
func (r *Room) broadcastLocked(msgType string, payload any) {
	data, err := protocol.Marshal(msgType, payload)
	if err != nil {
		log.Printf("room %s: failed to marshal %s: %v", r.code, msgType, err)
		return
	}
	for id, cl := range r.clients {
		if !cl.enqueue(data) {
			log.Printf("room %s: dropping slow client %s", r.code, id)
			delete(r.clients, id)
			if p, ok := r.players[id]; ok {
				p.Connected = false
			}
			cl.close()
		}
	}
}

// sendToLocked enqueues a message to a single player's connection.
func (r *Room) sendToLocked(playerID, msgType string, payload any) {
	cl, ok := r.clients[playerID]
	if !ok {
		return
	}
	data, err := protocol.Marshal(msgType, payload)
	if err != nil {
		log.Printf("room %s: failed to marshal %s: %v", r.code, msgType, err)
		return
	}
	if !cl.enqueue(data) {
		delete(r.clients, playerID)
		if p, ok := r.players[playerID]; ok {
			p.Connected = false
		}
		cl.close()
	}
}

// snapshotLocked builds the full authoritative room state for the wire.
func (r *Room) snapshotLocked() protocol.RoomState {
	players := make([]protocol.PlayerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.snapshot())
	}
	state := protocol.RoomState{
		Code:       r.code,
		Name:       r.name,
		HostID:     r.hostID,
		Phase:      string(r.phase),
		MaxPlayers: r.cfg.MaxPlayers,
		Round:      r.round,
		MaxRounds:  r.cfg.MaxRounds,
		PhaseTicks: r.phaseTicks,
		Players:    players,
		ServerTime: time.Now().UnixMilli(),
	}
	if r.phase.inMatch() || r.phase == phaseFinished {
		border := r.border.snapshot()
		state.Border = &border
		state.Chests = make([]protocol.ChestState, 0, len(r.chests))
		for i, chest := range r.chests {
			state.Chests = append(state.Chests, protocol.ChestState{
				Index:    i,
				X:        chest.X,
				Z:        chest.Z,
				Opened:   chest.Opened,
				OpenedBy: chest.OpenedBy,
			})
		}
		state.KillFeed = make([]protocol.KillFeedEntry, 0, len(r.killFeed))
		for _, entry := range r.killFeed {
			state.KillFeed = append(state.KillFeed, entry.snapshot())
		}
	}
	return state
}

// summaryLocked builds the public listing entry.
func (r *Room) summaryLocked() protocol.RoomSummary {
	return protocol.RoomSummary{
		Code:       r.code,
		Name:       r.name,
		Players:    len(r.players),
		MaxPlayers: r.cfg.MaxPlayers,
		Status:     r.phase.listingStatus(),
	}
}

// shutdownLocked marks the room dead and stops its tick loop. In-flight
// sends to the room are dropped by the closed client queues.
func (r *Room) shutdownLocked() {
	if r.deleted {
		return
	}
	r.deleted = true
	r.stopTickingLocked()
	for id, cl := range r.clients {
		delete(r.clients, id)
		cl.close()
	}
}

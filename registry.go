package main

import (
	"errors"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"zonefall/server/internal/loot"
	"zonefall/server/internal/protocol"
	"zonefall/server/internal/token"
)

// Registry owns the top-level room table. Its mutex guards only creation,
// lookup, listing and deletion; in-room mutation always goes through the
// room's own mutex.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand

	cfg       Config
	lootTable loot.Table
	tokens    *token.Manager
}

// NewRegistry builds the registry that every component receives by
// reference; there is no ambient global room table.
func NewRegistry(cfg Config, table loot.Table, tokens *token.Manager) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:       cfg,
		lootTable: table,
		tokens:    tokens,
	}
}

// normalizeRoomCode upper-cases client input; codes are case-insensitive in,
// case-normalized out.
func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom allocates a room under a fresh collision-checked code.
func (g *Registry) CreateRoom(name string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < roomCodeRetries; attempt++ {
		code := g.generateCodeLocked()
		if _, taken := g.rooms[code]; taken {
			continue
		}
		room := newRoom(code, name, g.cfg, g.lootTable, g.rng.Int63())
		g.rooms[code] = room
		return room, nil
	}
	return nil, errors.New("registry: exhausted room code attempts")
}

func (g *Registry) generateCodeLocked() string {
	var b strings.Builder
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeAlphabet[g.rng.Intn(len(roomCodeAlphabet))])
	}
	return b.String()
}

// Lookup finds a live room by code.
func (g *Registry) Lookup(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[normalizeRoomCode(code)]
	return room, ok
}

// Remove deletes a room from the table and shuts it down, revoking any
// outstanding reconnect tokens for its members.
func (g *Registry) Remove(code string) {
	g.mu.Lock()
	room, ok := g.rooms[code]
	if ok {
		delete(g.rooms, code)
	}
	g.mu.Unlock()
	if !ok {
		return
	}

	room.mu.Lock()
	members := make([]string, 0, len(room.players))
	for id := range room.players {
		members = append(members, id)
	}
	room.shutdownLocked()
	room.mu.Unlock()

	for _, id := range members {
		g.tokens.Revoke(code, id)
	}
}

// ListRooms returns public summaries ordered by creation time.
func (g *Registry) ListRooms() []protocol.RoomSummary {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].createdAt.Before(rooms[j].createdAt)
	})

	summaries := make([]protocol.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		summaries = append(summaries, room.summaryLocked())
		room.mu.Unlock()
	}
	return summaries
}

// RunSweep deletes rooms idle past the configured threshold, regardless of
// membership, so abandoned connections cannot leak rooms forever.
func (g *Registry) RunSweep(stop <-chan struct{}) {
	ticker := time.NewTicker(g.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			g.sweepOnce(now)
		}
	}
}

func (g *Registry) sweepOnce(now time.Time) {
	g.mu.Lock()
	candidates := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		candidates = append(candidates, room)
	}
	g.mu.Unlock()

	for _, room := range candidates {
		room.mu.Lock()
		idle := now.Sub(room.lastActivity) > g.cfg.RoomIdleTimeout
		empty := len(room.players) == 0
		room.mu.Unlock()
		if idle || empty {
			log.Printf("registry: sweeping room %s (idle=%v empty=%v)", room.code, idle, empty)
			g.Remove(room.code)
		}
	}
}

// RunLiveness runs the fixed-interval heartbeat check: any connection whose
// last heartbeat exceeds the timeout is dropped. The player record stays in
// its room for reconnection.
func (g *Registry) RunLiveness(stop <-chan struct{}) {
	ticker := time.NewTicker(g.cfg.LivenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			g.livenessOnce(now)
		}
	}
}

func (g *Registry) livenessOnce(now time.Time) {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()

	for _, room := range rooms {
		room.mu.Lock()
		for id, cl := range room.clients {
			p, ok := room.players[id]
			if !ok {
				continue
			}
			if now.Sub(p.lastHeartbeat) > g.cfg.HeartbeatTimeout {
				log.Printf("room %s: disconnecting %s due to heartbeat timeout", room.code, id)
				room.dropClientLocked(id, cl)
				cl.close()
				room.evaluateRoundEndLocked()
			}
		}
		room.mu.Unlock()
	}
}

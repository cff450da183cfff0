package main

import (
	"strings"
	"testing"
	"time"

	"zonefall/server/internal/loot"
	"zonefall/server/internal/token"
)

func newTestRegistry() *Registry {
	tokens := token.NewManager("test-secret", time.Minute)
	return NewRegistry(testConfig(), loot.DefaultTable(), tokens)
}

func TestCreateRoomCodeShape(t *testing.T) {
	g := newTestRegistry()

	room, err := g.CreateRoom("")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(room.code) != roomCodeLength {
		t.Fatalf("expected %d-char code, got %q", roomCodeLength, room.code)
	}
	for _, c := range room.code {
		if !strings.ContainsRune(roomCodeAlphabet, c) {
			t.Fatalf("code %q contains %q outside the restricted alphabet", room.code, c)
		}
	}
}

func TestCreateRoomCodesUnique(t *testing.T) {
	g := newTestRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		room, err := g.CreateRoom("")
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		if seen[room.code] {
			t.Fatalf("duplicate room code %q", room.code)
		}
		seen[room.code] = true
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	g := newTestRegistry()
	room, err := g.CreateRoom("")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, ok := g.Lookup(strings.ToLower(room.code))
	if !ok || found != room {
		t.Fatalf("lowercase lookup failed for %q", room.code)
	}
	if _, ok := g.Lookup(" " + room.code + " "); !ok {
		t.Fatal("lookup should trim whitespace")
	}
	if _, ok := g.Lookup("ZZZZZ"); ok {
		t.Fatal("lookup found a room that was never created")
	}
}

func TestListRoomsSummaries(t *testing.T) {
	g := newTestRegistry()
	a, _ := g.CreateRoom("alpha")
	b, _ := g.CreateRoom("beta")
	a.mu.Lock()
	a.addPlayerLocked("p1", "p1")
	a.mu.Unlock()
	b.mu.Lock()
	b.addPlayerLocked("p2", "p2")
	b.addPlayerLocked("p3", "p3")
	b.phase = phaseFighting
	b.mu.Unlock()

	rooms := g.ListRooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Code != a.code || rooms[1].Code != b.code {
		t.Fatalf("expected creation order, got %v", rooms)
	}
	if rooms[0].Status != "lobby" || rooms[1].Status != "playing" {
		t.Fatalf("unexpected statuses %q / %q", rooms[0].Status, rooms[1].Status)
	}
	if rooms[1].Players != 2 {
		t.Fatalf("expected 2 players in beta, got %d", rooms[1].Players)
	}
}

func TestRemoveShutsRoomDown(t *testing.T) {
	g := newTestRegistry()
	room, _ := g.CreateRoom("")
	room.mu.Lock()
	room.addPlayerLocked("p1", "p1")
	room.ensureTickingLocked()
	room.mu.Unlock()

	g.Remove(room.code)

	if _, ok := g.Lookup(room.code); ok {
		t.Fatal("room still in registry after Remove")
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if !room.deleted {
		t.Fatal("room not marked deleted")
	}
	if room.ticking {
		t.Fatal("tick schedule not cancelled")
	}
}

func TestSweepDeletesIdleRooms(t *testing.T) {
	g := newTestRegistry()
	idle, _ := g.CreateRoom("idle")
	idle.mu.Lock()
	idle.addPlayerLocked("p1", "p1")
	idle.lastActivity = time.Now().Add(-g.cfg.RoomIdleTimeout - time.Minute)
	idle.mu.Unlock()

	active, _ := g.CreateRoom("active")
	active.mu.Lock()
	active.addPlayerLocked("p2", "p2")
	active.mu.Unlock()

	g.sweepOnce(time.Now())

	if _, ok := g.Lookup(idle.code); ok {
		t.Fatal("idle room survived the sweep")
	}
	if _, ok := g.Lookup(active.code); !ok {
		t.Fatal("active room was swept")
	}
}

func TestSweepDeletesEmptyRooms(t *testing.T) {
	g := newTestRegistry()
	room, _ := g.CreateRoom("")

	g.sweepOnce(time.Now())

	if _, ok := g.Lookup(room.code); ok {
		t.Fatal("empty room survived the sweep")
	}
}

func TestLivenessDropsStaleConnections(t *testing.T) {
	g := newTestRegistry()
	room, _ := g.CreateRoom("")
	room.mu.Lock()
	p := room.addPlayerLocked("p1", "p1")
	cl := newTestClient()
	room.bindClientLocked("p1", cl)
	p.lastHeartbeat = time.Now().Add(-g.cfg.HeartbeatTimeout - time.Second)
	room.mu.Unlock()

	g.livenessOnce(time.Now())

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.players["p1"].Connected {
		t.Fatal("stale connection still marked connected")
	}
	if _, bound := room.clients["p1"]; bound {
		t.Fatal("stale client still bound")
	}
	if _, member := room.players["p1"]; !member {
		t.Fatal("liveness drop must not evict the player record")
	}
}

// Scenario: P1 creates, P2 joins, P1 leaves; the room survives with P2 as
// host, and P2 leaving deletes it.
func TestRoomLifecycleHostTransfer(t *testing.T) {
	g := newTestRegistry()
	room, err := g.CreateRoom("")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	room.mu.Lock()
	room.addPlayerLocked("p1", "Host")
	room.addPlayerLocked("p2", "Friend")
	if len(room.players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(room.players))
	}

	_, empty := room.removePlayerLocked("p1")
	if empty {
		t.Fatal("room emptied too early")
	}
	if room.hostID != "p2" {
		t.Fatalf("expected host transfer to p2, got %q", room.hostID)
	}
	if len(room.players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(room.players))
	}

	_, empty = room.removePlayerLocked("p2")
	room.mu.Unlock()
	if !empty {
		t.Fatal("expected room to be empty")
	}
	g.Remove(room.code)
	if _, ok := g.Lookup(room.code); ok {
		t.Fatal("empty room should be deleted")
	}
}

// Reconnect correctness: a token issued at join restores the same identity
// and state after a disconnect, while a fabricated token mutates nothing.
func TestReconnectRestoresState(t *testing.T) {
	g := newTestRegistry()
	room, _ := g.CreateRoom("")
	room.mu.Lock()
	p := room.addPlayerLocked("p1", "Ada")
	cl := newTestClient()
	room.bindClientLocked("p1", cl)
	room.mu.Unlock()

	tok, err := g.tokens.Issue(room.code, "p1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	room.mu.Lock()
	p.Health = 61.5
	p.Kills = 2
	p.Deaths = 1
	p.X, p.Z = 4, 9
	room.dropClientLocked("p1", cl)
	room.mu.Unlock()

	binding, err := g.tokens.Redeem(tok)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	found, ok := g.Lookup(binding.RoomCode)
	if !ok || found != room {
		t.Fatalf("binding resolved to wrong room: %+v", binding)
	}

	room.mu.Lock()
	room.bindClientLocked(binding.PlayerID, newTestClient())
	got := room.players[binding.PlayerID]
	room.mu.Unlock()

	if got != p {
		t.Fatal("reconnect bound a different player record")
	}
	if got.Health != 61.5 || got.Kills != 2 || got.Deaths != 1 || got.X != 4 || got.Z != 9 {
		t.Fatalf("state changed across reconnect: %+v", got)
	}

	if _, err := g.tokens.Redeem("fabricated"); err == nil {
		t.Fatal("fabricated token must not redeem")
	}
}

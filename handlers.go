package main

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"zonefall/server/internal/protocol"
	"zonefall/server/internal/token"
)

// session tracks one connection's identity and current room. All room
// mutations it performs happen under the room's mutex.
type session struct {
	registry *Registry
	tokens   *token.Manager
	cl       *client

	room     *Room
	playerID string
}

func newSession(registry *Registry, tokens *token.Manager, cl *client) *session {
	return &session{registry: registry, tokens: tokens, cl: cl}
}

// run reads frames until the connection drops, dispatching each decoded
// message. Malformed frames are dropped with a log line; they never bring
// the session down.
func (s *session) run() {
	defer s.teardown()

	s.cl.conn.SetReadLimit(maxMessageSize)
	for {
		_, payload, err := s.cl.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.DecodeClient(payload)
		if err != nil {
			log.Printf("discarding malformed message: %v", err)
			continue
		}
		if msg == nil {
			continue
		}
		s.handle(msg)
	}
}

// teardown marks the player disconnected but leaves its record in the room
// so a reconnect token can restore it.
func (s *session) teardown() {
	s.cl.close()
	room := s.room
	if room == nil {
		return
	}
	s.room = nil

	room.mu.Lock()
	room.dropClientLocked(s.playerID, s.cl)
	room.broadcastLocked(protocol.TypeRoomState, room.snapshotLocked())
	room.evaluateRoundEndLocked()
	room.mu.Unlock()
}

func (s *session) handle(msg protocol.ClientMessage) {
	switch m := msg.(type) {
	case *protocol.CreateRoom:
		s.handleCreateRoom(m)
	case *protocol.JoinRoom:
		s.handleJoinRoom(m)
	case protocol.GetRooms:
		s.handleGetRooms()
	case *protocol.Reconnect:
		s.handleReconnect(m)
	case *protocol.Heartbeat:
		s.handleHeartbeat(m)
	case *protocol.Ready:
		s.handleReady(m)
	case protocol.Start:
		s.handleStart()
	case protocol.Leave:
		s.handleLeave()
	case *protocol.Position:
		s.handlePosition(m)
	case *protocol.Shoot:
		s.handleShoot(m)
	case *protocol.Hit:
		s.handleHit(m)
	case *protocol.Died:
		s.handleDied(m)
	case protocol.Respawn:
		s.handleRespawn()
	case *protocol.Chat:
		s.handleChat(m)
	case *protocol.OpenChest:
		s.handleOpenChest(m)
	}
}

// sendError reports a failure to this client only; errors are never
// broadcast to the room.
func (s *session) sendError(err error) {
	data, merr := protocol.Marshal(protocol.TypeError, protocol.ErrorMessage{
		Code:    errorCode(err),
		Message: err.Error(),
	})
	if merr != nil {
		log.Printf("failed to marshal error message: %v", merr)
		return
	}
	s.cl.enqueue(data)
}

func (s *session) sendDirect(msgType string, payload any) {
	data, err := protocol.Marshal(msgType, payload)
	if err != nil {
		log.Printf("failed to marshal %s: %v", msgType, err)
		return
	}
	s.cl.enqueue(data)
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}

func (s *session) handleCreateRoom(msg *protocol.CreateRoom) {
	if s.room != nil {
		return
	}
	room, err := s.registry.CreateRoom(strings.TrimSpace(msg.RoomName))
	if err != nil {
		log.Printf("create room failed: %v", err)
		s.sendError(err)
		return
	}

	playerID := uuid.NewString()
	room.mu.Lock()
	room.addPlayerLocked(playerID, sanitizeName(msg.PlayerName))
	room.bindClientLocked(playerID, s.cl)
	snapshot := room.snapshotLocked()
	room.mu.Unlock()

	s.room = room
	s.playerID = playerID

	reconnectToken, err := s.tokens.Issue(room.code, playerID)
	if err != nil {
		log.Printf("room %s: failed to issue token for %s: %v", room.code, playerID, err)
	}
	s.sendDirect(protocol.TypeRoomCreated, protocol.RoomCreated{
		Room:           snapshot,
		PlayerID:       playerID,
		ReconnectToken: reconnectToken,
	})
}

func (s *session) handleJoinRoom(msg *protocol.JoinRoom) {
	if s.room != nil {
		return
	}
	room, ok := s.registry.Lookup(msg.RoomCode)
	if !ok {
		s.sendError(ErrRoomNotFound)
		return
	}

	playerID := uuid.NewString()
	room.mu.Lock()
	if room.deleted {
		room.mu.Unlock()
		s.sendError(ErrRoomNotFound)
		return
	}
	if room.phase.inMatch() || room.phase == phaseCountdown {
		room.mu.Unlock()
		s.sendError(ErrGameInProgress)
		return
	}
	if len(room.players) >= room.cfg.MaxPlayers {
		room.mu.Unlock()
		s.sendError(ErrRoomFull)
		return
	}
	p := room.addPlayerLocked(playerID, sanitizeName(msg.PlayerName))
	room.bindClientLocked(playerID, s.cl)
	room.broadcastLocked(protocol.TypePlayerJoined, protocol.PlayerJoined{Player: p.snapshot()})
	snapshot := room.snapshotLocked()
	room.mu.Unlock()

	s.room = room
	s.playerID = playerID

	reconnectToken, err := s.tokens.Issue(room.code, playerID)
	if err != nil {
		log.Printf("room %s: failed to issue token for %s: %v", room.code, playerID, err)
	}
	s.sendDirect(protocol.TypeRoomJoined, protocol.RoomJoined{
		Room:           snapshot,
		PlayerID:       playerID,
		ReconnectToken: reconnectToken,
	})
}

func (s *session) handleGetRooms() {
	s.sendDirect(protocol.TypeRoomList, protocol.RoomList{Rooms: s.registry.ListRooms()})
}

// handleReconnect atomically rebinds a prior identity to this connection.
// The redeemed token is consumed either way; a fresh one is issued on
// success, and failure sends the client back to the menu.
func (s *session) handleReconnect(msg *protocol.Reconnect) {
	if s.room != nil {
		return
	}
	binding, err := s.tokens.Redeem(msg.ReconnectToken)
	if err != nil {
		s.sendError(ErrReconnectFailed)
		return
	}
	room, ok := s.registry.Lookup(binding.RoomCode)
	if !ok {
		s.sendError(ErrRoomGone)
		return
	}

	room.mu.Lock()
	if room.deleted {
		room.mu.Unlock()
		s.sendError(ErrRoomGone)
		return
	}
	p, ok := room.players[binding.PlayerID]
	if !ok {
		room.mu.Unlock()
		s.sendError(ErrRoomGone)
		return
	}
	room.bindClientLocked(binding.PlayerID, s.cl)
	inventory := p.Inventory.Stacks()
	snapshot := room.snapshotLocked()
	room.broadcastLocked(protocol.TypePlayerReconnected, protocol.PlayerReconnected{PlayerID: binding.PlayerID})
	room.mu.Unlock()

	s.room = room
	s.playerID = binding.PlayerID

	freshToken, err := s.tokens.Issue(binding.RoomCode, binding.PlayerID)
	if err != nil {
		log.Printf("room %s: failed to reissue token for %s: %v", binding.RoomCode, binding.PlayerID, err)
	}
	// The authoritative state replays to the reconnecting client only.
	s.sendDirect(protocol.TypeReconnected, protocol.Reconnected{
		Room:           snapshot,
		PlayerID:       binding.PlayerID,
		ReconnectToken: freshToken,
		Inventory:      inventory,
	})
}

func (s *session) handleHeartbeat(msg *protocol.Heartbeat) {
	now := time.Now()
	var rtt time.Duration
	if room := s.room; room != nil {
		room.mu.Lock()
		if p, ok := room.players[s.playerID]; ok {
			p.lastHeartbeat = now
			if msg.SentAt > 0 {
				// A timestamp from the future is clock skew, not a
				// measurement; keep the previous reading.
				if clientTime := time.UnixMilli(msg.SentAt); !clientTime.After(now) {
					p.lastRTT = now.Sub(clientTime)
				}
				rtt = p.lastRTT
			}
		}
		room.touchLocked()
		room.mu.Unlock()
	}
	s.sendDirect(protocol.TypeHeartbeatAck, protocol.HeartbeatAck{
		ServerTime: now.UnixMilli(),
		ClientTime: msg.SentAt,
		RTTMillis:  rtt.Milliseconds(),
	})
}

func (s *session) handleReady(msg *protocol.Ready) {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.phase == phaseLobby || room.phase == phaseFinished {
		if p, ok := room.players[s.playerID]; ok {
			p.Ready = msg.Ready
		}
	}
	room.touchLocked()
	room.broadcastLocked(protocol.TypeRoomState, room.snapshotLocked())
	room.mu.Unlock()
}

func (s *session) handleStart() {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	err := room.startLocked(s.playerID)
	room.mu.Unlock()
	if err != nil {
		s.sendError(err)
	}
}

func (s *session) handleLeave() {
	room := s.room
	if room == nil {
		return
	}
	s.room = nil

	room.mu.Lock()
	newHost, empty := room.removePlayerLocked(s.playerID)
	if !empty {
		room.broadcastLocked(protocol.TypePlayerLeft, protocol.PlayerLeft{
			PlayerID:  s.playerID,
			NewHostID: newHost,
		})
		room.evaluateRoundEndLocked()
	}
	code := room.code
	room.mu.Unlock()

	s.tokens.Revoke(code, s.playerID)
	if empty {
		s.registry.Remove(code)
	}
}

func (s *session) handlePosition(msg *protocol.Position) {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	p, ok := room.players[s.playerID]
	if !ok || !p.Alive || p.Spectating {
		room.mu.Unlock()
		return
	}
	p.X, p.Y, p.Z, p.Yaw = msg.X, msg.Y, msg.Z, msg.Yaw
	room.broadcastLocked(protocol.TypePlayerPosition, protocol.PlayerPosition{
		PlayerID: s.playerID,
		X:        msg.X,
		Y:        msg.Y,
		Z:        msg.Z,
		Yaw:      msg.Yaw,
	})
	room.mu.Unlock()
}

func (s *session) handleShoot(msg *protocol.Shoot) {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	p, ok := room.players[s.playerID]
	if ok && p.Alive && room.phase.inMatch() {
		room.broadcastLocked(protocol.TypePlayerShot, protocol.PlayerShot{
			PlayerID: s.playerID,
			X:        msg.X,
			Y:        msg.Y,
			Z:        msg.Z,
			DirX:     msg.DirX,
			DirY:     msg.DirY,
			DirZ:     msg.DirZ,
			WeaponID: msg.WeaponID,
		})
	}
	room.mu.Unlock()
}

func (s *session) handleHit(msg *protocol.Hit) {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	room.handleHitLocked(s.playerID, msg)
	room.mu.Unlock()
}

// handleDied processes a client self-reported death, e.g. falling out of the
// world. The killer credit still goes through the authoritative handler.
func (s *session) handleDied(msg *protocol.Died) {
	room := s.room
	if room == nil {
		return
	}
	cause := msg.WeaponID
	if cause == "" {
		cause = causeUnknown
	}
	room.mu.Lock()
	if room.phase.inMatch() {
		room.applyDeathLocked(s.playerID, msg.KillerID, cause)
	}
	room.mu.Unlock()
}

// handleRespawn restores the player between matches. During a round death is
// final until the next round reset.
func (s *session) handleRespawn() {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.phase == phaseLobby || room.phase == phaseFinished {
		if p, ok := room.players[s.playerID]; ok && !p.Alive {
			p.Alive = true
			p.Health = p.MaxHealth
			p.Spectating = false
			p.SpectateTargetID = ""
			room.broadcastLocked(protocol.TypePlayerRespawned, protocol.PlayerRespawned{
				PlayerID: s.playerID,
				Health:   p.Health,
			})
		}
	}
	room.mu.Unlock()
}

func (s *session) handleChat(msg *protocol.Chat) {
	room := s.room
	if room == nil {
		return
	}
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
	}
	room.mu.Lock()
	if p, ok := room.players[s.playerID]; ok {
		room.broadcastLocked(protocol.TypeChatMessage, protocol.ChatMessage{
			PlayerID: s.playerID,
			Name:     p.Name,
			Message:  text,
		})
		room.touchLocked()
	}
	room.mu.Unlock()
}

func (s *session) handleOpenChest(msg *protocol.OpenChest) {
	room := s.room
	if room == nil {
		return
	}
	room.mu.Lock()
	room.openChestLocked(s.playerID, msg.ChestIndex)
	room.mu.Unlock()
}

package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope frames every message in both directions. Type discriminates the
// payload shape carried in Data.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client → server message types.
const (
	TypeCreateRoom = "create_room"
	TypeJoinRoom   = "join_room"
	TypeGetRooms   = "get_rooms"
	TypeReady      = "ready"
	TypeStart      = "start"
	TypeLeave      = "leave"
	TypeReconnect  = "reconnect"
	TypePosition   = "position"
	TypeShoot      = "shoot"
	TypeHit        = "hit"
	TypeDied       = "died"
	TypeRespawn    = "respawn"
	TypeChat       = "chat"
	TypeHeartbeat  = "heartbeat"
	TypeOpenChest  = "open_chest"
)

// Server → client message types.
const (
	TypeRoomCreated       = "room_created"
	TypeRoomJoined        = "room_joined"
	TypeRoomList          = "room_list"
	TypeRoomState         = "room_state"
	TypePlayerJoined      = "player_joined"
	TypePlayerLeft        = "player_left"
	TypePlayerPosition    = "player_position"
	TypePlayerShot        = "player_shot"
	TypePlayerHit         = "player_hit"
	TypePlayerDied        = "player_died"
	TypePlayerRespawned   = "player_respawned"
	TypePlayerReconnected = "player_reconnected"
	TypeChatMessage       = "chat_message"
	TypeChestOpened       = "chest_opened"
	TypeBorderUpdate      = "border_update"
	TypeRoundOver         = "round_over"
	TypeMatchOver         = "match_over"
	TypeReconnected       = "reconnected"
	TypeHeartbeatAck      = "heartbeat"
	TypeError             = "error"
)

// ClientMessage is the closed union of messages a client may send. Decoding
// an unrecognized type yields a nil message, which handlers treat as a no-op.
type ClientMessage interface {
	clientMessage()
}

type CreateRoom struct {
	PlayerName string `json:"playerName"`
	RoomName   string `json:"roomName,omitempty"`
}

type JoinRoom struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type GetRooms struct{}

type Ready struct {
	Ready bool `json:"ready"`
}

type Start struct{}

type Leave struct{}

type Reconnect struct {
	ReconnectToken string `json:"reconnectToken"`
}

type Position struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

type Shoot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	DirX     float64 `json:"dirX"`
	DirY     float64 `json:"dirY"`
	DirZ     float64 `json:"dirZ"`
	WeaponID string  `json:"weaponId"`
}

type Hit struct {
	TargetID string  `json:"targetId"`
	Damage   float64 `json:"damage"`
	WeaponID string  `json:"weaponId"`
	Headshot bool    `json:"headshot"`
}

type Died struct {
	KillerID string `json:"killerId,omitempty"`
	WeaponID string `json:"weaponId,omitempty"`
}

type Respawn struct{}

type Chat struct {
	Message string `json:"message"`
}

type Heartbeat struct {
	SentAt int64 `json:"sentAt"`
}

type OpenChest struct {
	ChestIndex int `json:"chestIndex"`
}

func (CreateRoom) clientMessage() {}
func (JoinRoom) clientMessage()   {}
func (GetRooms) clientMessage()   {}
func (Ready) clientMessage()      {}
func (Start) clientMessage()      {}
func (Leave) clientMessage()      {}
func (Reconnect) clientMessage()  {}
func (Position) clientMessage()   {}
func (Shoot) clientMessage()      {}
func (Hit) clientMessage()        {}
func (Died) clientMessage()       {}
func (Respawn) clientMessage()    {}
func (Chat) clientMessage()       {}
func (Heartbeat) clientMessage()  {}
func (OpenChest) clientMessage()  {}

// DecodeClient parses a raw frame into its concrete message. An unknown type
// returns (nil, nil); malformed JSON returns an error so callers can drop the
// frame with a log line.
func DecodeClient(raw []byte) (ClientMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg ClientMessage
	switch env.Type {
	case TypeCreateRoom:
		msg = &CreateRoom{}
	case TypeJoinRoom:
		msg = &JoinRoom{}
	case TypeGetRooms:
		return GetRooms{}, nil
	case TypeReady:
		msg = &Ready{}
	case TypeStart:
		return Start{}, nil
	case TypeLeave:
		return Leave{}, nil
	case TypeReconnect:
		msg = &Reconnect{}
	case TypePosition:
		msg = &Position{}
	case TypeShoot:
		msg = &Shoot{}
	case TypeHit:
		msg = &Hit{}
	case TypeDied:
		msg = &Died{}
	case TypeRespawn:
		return Respawn{}, nil
	case TypeChat:
		msg = &Chat{}
	case TypeHeartbeat:
		msg = &Heartbeat{}
	case TypeOpenChest:
		msg = &OpenChest{}
	default:
		return nil, nil
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, msg); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return msg, nil
}

// Marshal wraps a payload in an envelope and encodes it for the wire.
func Marshal(msgType string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		data = encoded
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

package protocol

// Error codes carried by TypeError payloads. ReconnectFailed and RoomGone are
// terminal: the client discards its token and returns to the menu.
const (
	ErrCodeRoomNotFound    = "room_not_found"
	ErrCodeRoomFull        = "room_full"
	ErrCodeGameInProgress  = "game_in_progress"
	ErrCodeNotHost         = "not_host"
	ErrCodeNotAllReady     = "not_all_ready"
	ErrCodeReconnectFailed = "reconnect_failed"
	ErrCodeRoomGone        = "room_gone"
)

// PlayerState is the room-scoped view of a player sent to clients.
type PlayerState struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Ready            bool    `json:"ready"`
	Connected        bool    `json:"connected"`
	Alive            bool    `json:"alive"`
	Health           float64 `json:"health"`
	MaxHealth        float64 `json:"maxHealth"`
	Kills            int     `json:"kills"`
	RoundKills       int     `json:"roundKills"`
	Deaths           int     `json:"deaths"`
	RoundWins        int     `json:"roundWins"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Z                float64 `json:"z"`
	Yaw              float64 `json:"yaw"`
	Spectating       bool    `json:"spectating"`
	SpectateTargetID string  `json:"spectateTargetId,omitempty"`
}

// BorderState mirrors the safe zone for clients.
type BorderState struct {
	CenterX   float64 `json:"centerX"`
	CenterZ   float64 `json:"centerZ"`
	Radius    float64 `json:"radius"`
	MinRadius float64 `json:"minRadius"`
	Shrinking bool    `json:"shrinking"`
}

// ItemStack is a typed quantity of one item.
type ItemStack struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// ChestState describes one lootable container.
type ChestState struct {
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Opened   bool    `json:"opened"`
	OpenedBy string  `json:"openedBy,omitempty"`
}

// KillFeedEntry is display-only; the retention window prunes old entries.
type KillFeedEntry struct {
	KillerID  string `json:"killerId,omitempty"`
	VictimID  string `json:"victimId"`
	Cause     string `json:"cause"`
	Timestamp int64  `json:"timestamp"`
}

// RoomState is the full authoritative snapshot broadcast to a room.
type RoomState struct {
	Code       string          `json:"code"`
	Name       string          `json:"name,omitempty"`
	HostID     string          `json:"hostId"`
	Phase      string          `json:"phase"`
	MaxPlayers int             `json:"maxPlayers"`
	Round      int             `json:"round"`
	MaxRounds  int             `json:"maxRounds"`
	PhaseTicks int             `json:"phaseTicks"`
	Players    []PlayerState   `json:"players"`
	Border     *BorderState    `json:"border,omitempty"`
	Chests     []ChestState    `json:"chests,omitempty"`
	KillFeed   []KillFeedEntry `json:"killFeed,omitempty"`
	ServerTime int64           `json:"serverTime"`
}

// RoomSummary is the public listing view of a room.
type RoomSummary struct {
	Code       string `json:"code"`
	Name       string `json:"name,omitempty"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Status     string `json:"status"`
}

type RoomCreated struct {
	Room           RoomState `json:"room"`
	PlayerID       string    `json:"playerId"`
	ReconnectToken string    `json:"reconnectToken"`
}

type RoomJoined struct {
	Room           RoomState `json:"room"`
	PlayerID       string    `json:"playerId"`
	ReconnectToken string    `json:"reconnectToken"`
}

type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

type PlayerJoined struct {
	Player PlayerState `json:"player"`
}

type PlayerLeft struct {
	PlayerID  string `json:"playerId"`
	NewHostID string `json:"newHostId,omitempty"`
}

type PlayerPosition struct {
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Yaw      float64 `json:"yaw"`
}

type PlayerShot struct {
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	DirX     float64 `json:"dirX"`
	DirY     float64 `json:"dirY"`
	DirZ     float64 `json:"dirZ"`
	WeaponID string  `json:"weaponId"`
}

type PlayerHit struct {
	AttackerID string  `json:"attackerId"`
	TargetID   string  `json:"targetId"`
	Damage     float64 `json:"damage"`
	Health     float64 `json:"health"`
	WeaponID   string  `json:"weaponId"`
	Headshot   bool    `json:"headshot"`
}

type PlayerDied struct {
	Entry            KillFeedEntry `json:"entry"`
	SpectateTargetID string        `json:"spectateTargetId,omitempty"`
}

type PlayerRespawned struct {
	PlayerID string  `json:"playerId"`
	Health   float64 `json:"health"`
}

type PlayerReconnected struct {
	PlayerID string `json:"playerId"`
}

type ChatMessage struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}

type ChestOpened struct {
	ChestIndex int         `json:"chestIndex"`
	PlayerID   string      `json:"playerId"`
	Loot       []ItemStack `json:"loot"`
}

type BorderUpdate struct {
	Border BorderState `json:"border"`
}

type RoundOver struct {
	Round    int           `json:"round"`
	WinnerID string        `json:"winnerId,omitempty"`
	Standing []PlayerState `json:"standing"`
}

type MatchOver struct {
	WinnerID    string        `json:"winnerId,omitempty"`
	Leaderboard []PlayerState `json:"leaderboard"`
}

type Reconnected struct {
	Room           RoomState   `json:"room"`
	PlayerID       string      `json:"playerId"`
	ReconnectToken string      `json:"reconnectToken"`
	Inventory      []ItemStack `json:"inventory"`
}

type HeartbeatAck struct {
	ServerTime int64 `json:"serverTime"`
	ClientTime int64 `json:"clientTime"`
	RTTMillis  int64 `json:"rtt"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package token

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid covers every way a reconnect token can fail to redeem: bad
// signature, expiry, unknown or already-consumed token, or a token that was
// superseded by a newer issuance for the same player.
var ErrInvalid = errors.New("token: invalid or expired reconnect token")

// Binding is the identity a token resolves to.
type Binding struct {
	RoomCode string
	PlayerID string
}

// Manager issues and redeems single-use reconnect tokens. Tokens are signed
// HS256 JWTs carrying the (roomCode, playerId) binding, but a signature alone
// cannot express single-use: the manager also tracks the one currently valid
// token id per player and rejects anything else.
type Manager struct {
	secret []byte
	ttl    time.Duration

	mu     sync.Mutex
	active map[string]string // "roomCode/playerID" -> jti
}

// NewManager creates a manager signing with the given secret. Tokens expire
// after ttl.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		active: make(map[string]string),
	}
}

func bindingKey(roomCode, playerID string) string {
	return roomCode + "/" + playerID
}

// Issue creates a fresh token for the binding, superseding any earlier token
// issued for the same player in the same room.
func (m *Manager) Issue(roomCode, playerID string) (string, error) {
	jti := uuid.NewString()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  playerID,
		"room": roomCode,
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	m.mu.Lock()
	m.active[bindingKey(roomCode, playerID)] = jti
	m.mu.Unlock()

	return signed, nil
}

// Redeem consumes a token and returns its binding. A redeemed token is
// invalid afterwards; the caller issues a replacement on successful
// reconnect. Any failure returns ErrInvalid without mutating state.
func (m *Manager) Redeem(tokenString string) (Binding, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Binding{}, ErrInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Binding{}, ErrInvalid
	}
	playerID, _ := claims["sub"].(string)
	roomCode, _ := claims["room"].(string)
	jti, _ := claims["jti"].(string)
	if playerID == "" || roomCode == "" || jti == "" {
		return Binding{}, ErrInvalid
	}

	key := bindingKey(roomCode, playerID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[key] != jti {
		return Binding{}, ErrInvalid
	}
	delete(m.active, key)

	return Binding{RoomCode: roomCode, PlayerID: playerID}, nil
}

// Revoke drops any outstanding token for the binding, e.g. when the player
// leaves the room for good or the room is deleted.
func (m *Manager) Revoke(roomCode, playerID string) {
	m.mu.Lock()
	delete(m.active, bindingKey(roomCode, playerID))
	m.mu.Unlock()
}

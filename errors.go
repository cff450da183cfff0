package main

import (
	"errors"

	"zonefall/server/internal/protocol"
)

// Room and match errors are surfaced to the offending client only, never
// broadcast. ErrReconnectFailed and ErrRoomGone are terminal for the client
// session; everything else is retryable after correcting the condition.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrGameInProgress  = errors.New("game already in progress")
	ErrNotHost         = errors.New("only the host may do that")
	ErrNotAllReady     = errors.New("not all players are ready")
	ErrReconnectFailed = errors.New("reconnect token invalid or expired")
	ErrRoomGone        = errors.New("room no longer exists")
)

// errorCode maps an error to its wire code. Unknown errors are reported as
// reconnect-safe generic failures so internals never leak to clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return protocol.ErrCodeRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return protocol.ErrCodeRoomFull
	case errors.Is(err, ErrGameInProgress):
		return protocol.ErrCodeGameInProgress
	case errors.Is(err, ErrNotHost):
		return protocol.ErrCodeNotHost
	case errors.Is(err, ErrNotAllReady):
		return protocol.ErrCodeNotAllReady
	case errors.Is(err, ErrReconnectFailed):
		return protocol.ErrCodeReconnectFailed
	case errors.Is(err, ErrRoomGone):
		return protocol.ErrCodeRoomGone
	default:
		return "internal"
	}
}

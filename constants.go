package main

import "time"

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendQueueSize  = 64

	// Room codes exclude visually ambiguous characters (0/O, 1/I).
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 5
	roomCodeRetries  = 16

	playerMaxHealth = 100.0
	inventorySlots  = 9
	maxNameLength   = 24
	maxChatLength   = 256

	// Players spawn evenly spaced on a ring at this fraction of the border
	// radius; chests scatter inside the same fraction.
	spawnRingFraction = 0.75
)

package main

import (
	"time"

	"zonefall/server/internal/loot"
	"zonefall/server/internal/protocol"
)

// ItemStack is a typed quantity of one item held in an inventory slot.
type ItemStack struct {
	Type     string
	Quantity int
}

// Inventory is a fixed set of slots. Adding merges into an existing stack of
// the same type before claiming an empty slot.
type Inventory struct {
	Slots [inventorySlots]ItemStack
}

// Add places a stack into the inventory and returns the leftover quantity
// that did not fit.
func (inv *Inventory) Add(stack ItemStack) int {
	if stack.Quantity <= 0 || stack.Type == "" {
		return 0
	}
	remaining := stack.Quantity
	for i := range inv.Slots {
		if inv.Slots[i].Type == stack.Type {
			inv.Slots[i].Quantity += remaining
			return 0
		}
	}
	for i := range inv.Slots {
		if inv.Slots[i].Type == "" {
			inv.Slots[i] = ItemStack{Type: stack.Type, Quantity: remaining}
			return 0
		}
	}
	return remaining
}

// AddLoot fills the first available slots from pre-rolled chest loot and
// returns the stacks that actually entered the inventory.
func (inv *Inventory) AddLoot(stacks []loot.Stack) []protocol.ItemStack {
	granted := make([]protocol.ItemStack, 0, len(stacks))
	for _, stack := range stacks {
		leftover := inv.Add(ItemStack{Type: stack.Item, Quantity: stack.Quantity})
		got := stack.Quantity - leftover
		if got > 0 {
			granted = append(granted, protocol.ItemStack{Type: stack.Item, Quantity: got})
		}
	}
	return granted
}

// Clear empties every slot.
func (inv *Inventory) Clear() {
	for i := range inv.Slots {
		inv.Slots[i] = ItemStack{}
	}
}

// Stacks returns the occupied slots for the wire.
func (inv *Inventory) Stacks() []protocol.ItemStack {
	stacks := make([]protocol.ItemStack, 0, len(inv.Slots))
	for _, slot := range inv.Slots {
		if slot.Type != "" && slot.Quantity > 0 {
			stacks = append(stacks, protocol.ItemStack{Type: slot.Type, Quantity: slot.Quantity})
		}
	}
	return stacks
}

// playerState is the authoritative room-scoped record for one player. A
// disconnected player keeps its record (and gameplay state) for reconnection
// but is excluded from the alive-count checks that end a round.
type playerState struct {
	ID        string
	Name      string
	Ready     bool
	Connected bool

	Alive      bool
	Health     float64
	MaxHealth  float64
	Kills      int
	RoundKills int
	Deaths     int
	RoundWins  int

	X, Y, Z float64
	Yaw     float64

	InvulnerabilityTicks int
	Spectating           bool
	SpectateTargetID     string

	Inventory Inventory

	// joinOrder gives host transfer its stable next-joined ordering.
	joinOrder     uint64
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// applyHealthDelta adjusts health, clamped to [0, MaxHealth].
func (p *playerState) applyHealthDelta(delta float64) {
	p.Health += delta
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// resetForRound restores the per-round state: full health, alive, empty
// inventory, fresh invulnerability window. Cumulative kills, deaths and
// round wins persist; the per-round kill counter resets.
func (p *playerState) resetForRound(invulnTicks int) {
	p.Alive = true
	p.Health = p.MaxHealth
	p.RoundKills = 0
	p.Spectating = false
	p.SpectateTargetID = ""
	p.InvulnerabilityTicks = invulnTicks
	p.Inventory.Clear()
}

// snapshot copies the player into its wire form.
func (p *playerState) snapshot() protocol.PlayerState {
	return protocol.PlayerState{
		ID:               p.ID,
		Name:             p.Name,
		Ready:            p.Ready,
		Connected:        p.Connected,
		Alive:            p.Alive,
		Health:           p.Health,
		MaxHealth:        p.MaxHealth,
		Kills:            p.Kills,
		RoundKills:       p.RoundKills,
		Deaths:           p.Deaths,
		RoundWins:        p.RoundWins,
		X:                p.X,
		Y:                p.Y,
		Z:                p.Z,
		Yaw:              p.Yaw,
		Spectating:       p.Spectating,
		SpectateTargetID: p.SpectateTargetID,
	}
}

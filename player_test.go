package main

import (
	"testing"
	"time"

	"zonefall/server/internal/loot"
)

func TestInventoryMergesBeforeFilling(t *testing.T) {
	var inv Inventory

	if leftover := inv.Add(ItemStack{Type: "ammo", Quantity: 10}); leftover != 0 {
		t.Fatalf("unexpected leftover %d", leftover)
	}
	if leftover := inv.Add(ItemStack{Type: "ammo", Quantity: 5}); leftover != 0 {
		t.Fatalf("unexpected leftover %d", leftover)
	}

	if inv.Slots[0].Type != "ammo" || inv.Slots[0].Quantity != 15 {
		t.Fatalf("expected merged stack of 15 ammo, got %+v", inv.Slots[0])
	}
	if inv.Slots[1].Type != "" {
		t.Fatalf("second slot should be empty, got %+v", inv.Slots[1])
	}
}

func TestInventoryFillsFirstAvailableSlots(t *testing.T) {
	var inv Inventory
	inv.Add(ItemStack{Type: "pistol", Quantity: 1})
	inv.Add(ItemStack{Type: "bandage", Quantity: 2})

	granted := inv.AddLoot([]loot.Stack{
		{Item: "ammo", Quantity: 12},
		{Item: "bandage", Quantity: 1},
	})

	if len(granted) != 2 {
		t.Fatalf("expected 2 granted stacks, got %d", len(granted))
	}
	if inv.Slots[2].Type != "ammo" || inv.Slots[2].Quantity != 12 {
		t.Fatalf("ammo not placed in first free slot: %+v", inv.Slots[2])
	}
	if inv.Slots[1].Quantity != 3 {
		t.Fatalf("bandages not merged: %+v", inv.Slots[1])
	}
}

func TestInventoryOverflowReportsLeftover(t *testing.T) {
	var inv Inventory
	types := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	for _, typ := range types {
		inv.Add(ItemStack{Type: typ, Quantity: 1})
	}

	if leftover := inv.Add(ItemStack{Type: "overflow", Quantity: 7}); leftover != 7 {
		t.Fatalf("expected full inventory to report leftover 7, got %d", leftover)
	}
}

func TestResetForRoundPreservesCumulativeStats(t *testing.T) {
	p := &playerState{
		ID:         "p1",
		MaxHealth:  playerMaxHealth,
		Health:     12,
		Kills:      5,
		RoundKills: 2,
		Deaths:     3,
		RoundWins:  1,
		Spectating: true,
	}
	p.Inventory.Add(ItemStack{Type: "ammo", Quantity: 30})

	p.resetForRound(60)

	if !p.Alive || p.Health != playerMaxHealth {
		t.Fatalf("player not restored: alive=%v health=%v", p.Alive, p.Health)
	}
	if p.RoundKills != 0 {
		t.Fatalf("per-round kills not reset: %d", p.RoundKills)
	}
	if p.Kills != 5 || p.Deaths != 3 || p.RoundWins != 1 {
		t.Fatalf("cumulative stats mutated: %+v", p)
	}
	if p.Spectating || p.InvulnerabilityTicks != 60 {
		t.Fatalf("round state not reset: %+v", p)
	}
	if stacks := p.Inventory.Stacks(); len(stacks) != 0 {
		t.Fatalf("inventory not cleared: %v", stacks)
	}
}

func TestApplyHealthDeltaClamps(t *testing.T) {
	p := &playerState{Health: 10, MaxHealth: 100}

	p.applyHealthDelta(-25)
	if p.Health != 0 {
		t.Fatalf("expected clamp at 0, got %v", p.Health)
	}
	p.applyHealthDelta(500)
	if p.Health != 100 {
		t.Fatalf("expected clamp at max, got %v", p.Health)
	}
}

func TestPruneKillFeed(t *testing.T) {
	now := time.Now()
	feed := []killFeedEntry{
		{VictimID: "old", Timestamp: now.Add(-15 * time.Second)},
		{VictimID: "fresh", Timestamp: now.Add(-2 * time.Second)},
	}

	kept := pruneKillFeed(feed, now, 10*time.Second)

	if len(kept) != 1 || kept[0].VictimID != "fresh" {
		t.Fatalf("unexpected surviving entries %v", kept)
	}
}

func TestConfigTickHelpers(t *testing.T) {
	cfg := testConfig()

	if got := cfg.TickInterval(); got != time.Second/20 {
		t.Fatalf("unexpected tick interval %v", got)
	}
	if got := cfg.Ticks(1); got != 20 {
		t.Fatalf("expected 20 ticks for one second, got %d", got)
	}
	if got := cfg.Ticks(0.05); got != 1 {
		t.Fatalf("sub-tick durations round up, got %d", got)
	}
	if got := cfg.Ticks(0); got != 0 {
		t.Fatalf("zero seconds is zero ticks, got %d", got)
	}

	cfg.MaxRounds = 3
	if got := cfg.RoundsToWin(); got != 2 {
		t.Fatalf("expected 2 wins for best-of-3, got %d", got)
	}
	cfg.MaxRounds = 5
	if got := cfg.RoundsToWin(); got != 3 {
		t.Fatalf("expected 3 wins for best-of-5, got %d", got)
	}
}

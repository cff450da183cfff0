package main

import (
	"math"
	"testing"
	"time"
)

func TestBorderRadiusMonotonicWhileShrinking(t *testing.T) {
	cfg := testConfig()
	b := newBorder(cfg)
	b.Shrinking = true

	prev := b.Radius
	for i := 0; i < cfg.TickRate*60; i++ {
		b.advance(cfg.TickRate)
		if b.Radius > prev {
			t.Fatalf("radius increased from %v to %v while shrinking", prev, b.Radius)
		}
		if b.Radius < cfg.BorderMinRadius {
			t.Fatalf("radius %v fell below min %v", b.Radius, cfg.BorderMinRadius)
		}
		prev = b.Radius
	}

	if b.Radius != cfg.BorderMinRadius {
		t.Fatalf("expected radius to clamp at %v after a minute, got %v", cfg.BorderMinRadius, b.Radius)
	}
}

func TestBorderStaticUntilShrinking(t *testing.T) {
	cfg := testConfig()
	b := newBorder(cfg)

	b.advance(cfg.TickRate)
	if b.Radius != cfg.BorderInitialRadius {
		t.Fatalf("radius moved before shrinking flag: %v", b.Radius)
	}
}

func TestBorderContains(t *testing.T) {
	b := borderState{Radius: 10}

	if !b.contains(0, 0) {
		t.Fatal("center must be inside")
	}
	if !b.contains(10, 0) {
		t.Fatal("boundary counts as inside")
	}
	if b.contains(7.2, 7.2) {
		t.Fatal("point outside the circle reported inside")
	}
}

func TestShrinkStartsAfterFightingDelay(t *testing.T) {
	cfg := testConfig()
	cfg.BorderShrinkDelay = 1
	r := newTestRoomWithPlayers(cfg, 2)
	r.beginRoundLocked()
	r.phase = phaseFighting

	now := time.Now()
	delayTicks := cfg.Ticks(cfg.BorderShrinkDelay)
	for i := 0; i < delayTicks; i++ {
		r.tickLocked(now, uint64(i+1))
		if r.border.Shrinking {
			t.Fatalf("border started shrinking %d ticks early", delayTicks-i)
		}
	}
	r.tickLocked(now, uint64(delayTicks+1))
	if !r.border.Shrinking {
		t.Fatal("border should shrink once the delay elapses")
	}
}

// A player parked outside the zone for one full second of ticks loses the
// per-second border damage, within one tick of rounding.
func TestBorderDamageOverOneSecond(t *testing.T) {
	cfg := testConfig()
	r := newTestRoomWithPlayers(cfg, 2)
	r.beginRoundLocked()
	r.phase = phaseFighting

	outside := r.players["p1"]
	outside.X = r.border.CenterX + r.border.Radius + 50
	outside.Z = r.border.CenterZ
	inside := r.players["p2"]
	inside.X = r.border.CenterX
	inside.Z = r.border.CenterZ

	start := outside.Health
	now := time.Now()
	for i := 0; i < cfg.TickRate; i++ {
		r.tickLocked(now, uint64(i+1))
	}

	lost := start - outside.Health
	perTick := cfg.BorderDamagePerSecond / float64(cfg.TickRate)
	if math.Abs(lost-cfg.BorderDamagePerSecond) > perTick {
		t.Fatalf("expected ~%v damage over one second, lost %v", cfg.BorderDamagePerSecond, lost)
	}
	if inside.Health != inside.MaxHealth {
		t.Fatalf("player inside the zone took damage: %v", inside.Health)
	}
}

func TestBorderDeathHasBorderCause(t *testing.T) {
	cfg := testConfig()
	r := newTestRoomWithPlayers(cfg, 3)
	r.beginRoundLocked()
	r.phase = phaseFighting

	doomed := r.players["p1"]
	doomed.X = r.border.CenterX + r.border.Radius + 50
	doomed.Health = cfg.BorderDamagePerSecond / float64(cfg.TickRate) // one tick from death

	r.tickLocked(time.Now(), 1)

	if doomed.Alive {
		t.Fatal("expected border damage to kill the player")
	}
	if len(r.killFeed) != 1 {
		t.Fatalf("expected one kill-feed entry, got %d", len(r.killFeed))
	}
	entry := r.killFeed[0]
	if entry.Cause != causeBorder || entry.VictimID != "p1" || entry.KillerID != "" {
		t.Fatalf("unexpected kill-feed entry %+v", entry)
	}
}

func TestNoBorderDamageDuringExploration(t *testing.T) {
	cfg := testConfig()
	r := newTestRoomWithPlayers(cfg, 2)
	r.beginRoundLocked()

	outside := r.players["p1"]
	outside.X = r.border.CenterX + r.border.Radius + 50

	r.tickLocked(time.Now(), 1)

	if outside.Health != outside.MaxHealth {
		t.Fatalf("exploration is a grace period, but player lost %v health", outside.MaxHealth-outside.Health)
	}
}

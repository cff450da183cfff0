package main

import (
	"time"

	"zonefall/server/internal/protocol"
)

// ensureTickingLocked starts the per-room simulation goroutine if it is not
// already running. The room's mutex serializes ticks against handlers, so
// the loop and a message handler never mutate the room concurrently.
func (r *Room) ensureTickingLocked() {
	if r.ticking || r.deleted {
		return
	}
	r.ticking = true
	r.stopTick = make(chan struct{})
	go r.runTicks(r.stopTick)
}

// stopTickingLocked cancels the room's tick schedule.
func (r *Room) stopTickingLocked() {
	if !r.ticking {
		return
	}
	r.ticking = false
	close(r.stopTick)
	r.stopTick = nil
}

// runTicks drives the fixed-rate loop until the stop channel closes. A room
// deleted mid-schedule is skipped silently.
func (r *Room) runTicks(stop <-chan struct{}) {
	ticker := time.NewTicker(r.cfg.TickInterval())
	defer ticker.Stop()

	var tickCount uint64
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			if r.deleted || !r.ticking {
				r.mu.Unlock()
				return
			}
			tickCount++
			r.tickLocked(now, tickCount)
			r.mu.Unlock()
		}
	}
}

// tickLocked advances the room by one simulation step: age invulnerability,
// run the phase timers, shrink the border and apply boundary damage, prune
// the kill feed. State mutates first; outbound messages are enqueued after,
// never written to the network from here.
func (r *Room) tickLocked(now time.Time, tickCount uint64) {
	for _, p := range r.players {
		if p.InvulnerabilityTicks > 0 {
			p.InvulnerabilityTicks--
		}
	}

	switch r.phase {
	case phaseCountdown:
		r.phaseTicks--
		if r.phaseTicks <= 0 {
			r.beginRoundLocked()
		}
	case phaseExploration:
		r.phaseTicks--
		if r.phaseTicks <= 0 {
			r.phase = phaseFighting
			r.fightingTicks = 0
			r.broadcastLocked(protocol.TypeRoomState, r.snapshotLocked())
		}
	case phaseFighting:
		r.fightingTicks++
		if !r.border.Shrinking && r.fightingTicks > r.cfg.Ticks(r.cfg.BorderShrinkDelay) {
			r.border.Shrinking = true
			r.broadcastLocked(protocol.TypeBorderUpdate, protocol.BorderUpdate{Border: r.border.snapshot()})
		}
		r.border.advance(r.cfg.TickRate)
		r.applyBorderDamageLocked()
	}

	r.killFeed = pruneKillFeed(r.killFeed, now, r.cfg.KillFeedRetention)

	// One authoritative border refresh per second keeps clients converged
	// without flooding the queues every tick.
	if r.phase == phaseFighting && r.border.Shrinking && tickCount%uint64(r.cfg.TickRate) == 0 {
		r.broadcastLocked(protocol.TypeBorderUpdate, protocol.BorderUpdate{Border: r.border.snapshot()})
	}
}

// applyBorderDamageLocked damages every alive, non-spectating player outside
// the safe zone by one tick's share of the per-second rate. Damage applies
// to all victims before any death is routed, so simultaneous border deaths
// in one tick are handled fairly.
func (r *Room) applyBorderDamageLocked() {
	damage := r.cfg.BorderDamagePerSecond / float64(r.cfg.TickRate)
	if damage <= 0 {
		return
	}

	var dead []string
	for _, p := range r.players {
		if !p.Alive || p.Spectating {
			continue
		}
		if r.border.contains(p.X, p.Z) {
			continue
		}
		p.applyHealthDelta(-damage)
		if p.Health <= 0 {
			dead = append(dead, p.ID)
		}
	}

	for _, id := range dead {
		if r.phase != phaseFighting {
			// A death already ended the round; the reset players from the
			// next round must not inherit this tick's casualties.
			return
		}
		r.applyDeathLocked(id, "", causeBorder)
	}
}

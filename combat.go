package main

import (
	"math"
	"time"

	"zonefall/server/internal/protocol"
)

// Death causes recorded in the kill feed.
const (
	causeBorder  = "border"
	causeUnknown = "unknown"
)

// applyDeathLocked handles a player death: flips the victim to a spectator,
// credits the killer, appends a kill-feed entry, and re-evaluates round end.
// Idempotent: a victim that is already not alive is a no-op.
func (r *Room) applyDeathLocked(victimID, killerID, cause string) {
	victim, ok := r.players[victimID]
	if !ok || !victim.Alive {
		return
	}

	victim.Alive = false
	victim.Health = 0
	victim.Deaths++
	victim.Spectating = true
	victim.SpectateTargetID = ""
	for _, p := range r.players {
		if p.Alive && p.ID != victimID {
			victim.SpectateTargetID = p.ID
			break
		}
	}

	if killerID != "" && killerID != victimID {
		if killer, ok := r.players[killerID]; ok && killer.Alive {
			killer.Kills++
			killer.RoundKills++
		}
	}

	if cause == "" {
		cause = causeUnknown
	}
	entry := killFeedEntry{
		KillerID:  killerID,
		VictimID:  victimID,
		Cause:     cause,
		Timestamp: time.Now(),
	}
	r.killFeed = append(r.killFeed, entry)

	r.broadcastLocked(protocol.TypePlayerDied, protocol.PlayerDied{
		Entry:            entry.snapshot(),
		SpectateTargetID: victim.SpectateTargetID,
	})

	r.evaluateRoundEndLocked()
}

// handleHitLocked applies client-reported weapon damage. The report is
// validated against authoritative state: both parties alive, the target not
// in its invulnerability window, the damage inside the configured clamp.
func (r *Room) handleHitLocked(attackerID string, msg *protocol.Hit) {
	if r.phase != phaseFighting && r.phase != phaseExploration {
		return
	}
	attacker, ok := r.players[attackerID]
	if !ok || !attacker.Alive {
		return
	}
	target, ok := r.players[msg.TargetID]
	if !ok || !target.Alive || msg.TargetID == attackerID {
		return
	}
	if target.InvulnerabilityTicks > 0 {
		return
	}

	damage := msg.Damage
	if damage <= 0 {
		return
	}
	if damage > r.cfg.MaxHitDamage {
		damage = r.cfg.MaxHitDamage
	}
	if msg.Headshot {
		damage *= r.cfg.HeadshotMultiplier
	}

	target.applyHealthDelta(-damage)
	r.broadcastLocked(protocol.TypePlayerHit, protocol.PlayerHit{
		AttackerID: attackerID,
		TargetID:   target.ID,
		Damage:     damage,
		Health:     target.Health,
		WeaponID:   msg.WeaponID,
		Headshot:   msg.Headshot,
	})

	if target.Health <= 0 {
		cause := msg.WeaponID
		if cause == "" {
			cause = causeUnknown
		}
		r.applyDeathLocked(target.ID, attackerID, cause)
	}
}

// openChestLocked grants a chest's pre-rolled loot to the opener. Every
// failure mode is silent: already opened, bad index, dead opener, or opener
// out of interaction range.
func (r *Room) openChestLocked(playerID string, index int) {
	if !r.phase.inMatch() {
		return
	}
	if index < 0 || index >= len(r.chests) {
		return
	}
	chest := &r.chests[index]
	if chest.Opened {
		return
	}
	p, ok := r.players[playerID]
	if !ok || !p.Alive {
		return
	}
	if math.Hypot(p.X-chest.X, p.Z-chest.Z) > r.cfg.InteractionRadius {
		return
	}

	chest.Opened = true
	chest.OpenedBy = playerID
	granted := p.Inventory.AddLoot(chest.Loot)
	r.touchLocked()

	r.broadcastLocked(protocol.TypeChestOpened, protocol.ChestOpened{
		ChestIndex: index,
		PlayerID:   playerID,
		Loot:       granted,
	})
}

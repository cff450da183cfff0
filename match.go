package main

import (
	"math"
	"sort"

	"zonefall/server/internal/loot"
	"zonefall/server/internal/protocol"
)

// startLocked handles the host's start action: from the lobby it begins the
// countdown, from finished it begins a rematch. The host is implicitly
// ready; every other connected player must have readied up.
func (r *Room) startLocked(playerID string) error {
	if playerID != r.hostID {
		return ErrNotHost
	}
	if r.phase != phaseLobby && r.phase != phaseFinished {
		return ErrGameInProgress
	}
	connected := 0
	for _, p := range r.players {
		if p.Connected {
			connected++
		}
	}
	if connected < 2 {
		return ErrNotAllReady
	}
	for _, p := range r.players {
		if p.ID == r.hostID || !p.Connected {
			continue
		}
		if !p.Ready {
			return ErrNotAllReady
		}
	}

	if r.phase == phaseFinished {
		// Rematch: cumulative stats start over.
		for _, p := range r.players {
			p.Kills = 0
			p.RoundKills = 0
			p.Deaths = 0
			p.RoundWins = 0
			p.Ready = false
		}
	}
	r.round = 0
	r.phase = phaseCountdown
	r.phaseTicks = r.cfg.Ticks(r.cfg.CountdownSeconds)
	r.touchLocked()
	r.ensureTickingLocked()
	r.broadcastLocked(protocol.TypeRoomState, r.snapshotLocked())
	return nil
}

// beginRoundLocked sets up the next round: player state reset, fresh border,
// re-rolled chests, exploration grace period.
func (r *Room) beginRoundLocked() {
	r.round++
	r.phase = phaseExploration
	r.phaseTicks = r.cfg.Ticks(r.cfg.ExplorationSeconds)
	r.fightingTicks = 0
	r.border = newBorder(r.cfg)
	r.killFeed = r.killFeed[:0]
	r.rollChestsLocked()

	invuln := r.cfg.Ticks(r.cfg.SpawnInvulnSeconds)
	spawns := r.spawnOrderLocked()
	for i, p := range spawns {
		p.resetForRound(invuln)
		angle := 2 * math.Pi * float64(i) / float64(len(spawns))
		ring := r.border.Radius * spawnRingFraction
		p.X = r.border.CenterX + math.Cos(angle)*ring
		p.Y = 0
		p.Z = r.border.CenterZ + math.Sin(angle)*ring
	}

	r.touchLocked()
	r.broadcastLocked(protocol.TypeRoomState, r.snapshotLocked())

	// A disconnect during countdown or between rounds can leave the fresh
	// round with at most one contender; resolve it immediately rather than
	// waiting for the border to finish off an idle body.
	r.evaluateRoundEndLocked()
}

// spawnOrderLocked returns the members in stable join order so spawn points
// are deterministic for a given seed and membership.
func (r *Room) spawnOrderLocked() []*playerState {
	players := make([]*playerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].joinOrder < players[j].joinOrder
	})
	return players
}

// rollChestsLocked scatters chests inside the border and pre-rolls their
// loot from the weighted table. Loot is never re-rolled on open.
func (r *Room) rollChestsLocked() {
	r.chests = make([]chestState, 0, r.cfg.ChestCount)
	for i := 0; i < r.cfg.ChestCount; i++ {
		dist := r.border.Radius * spawnRingFraction * math.Sqrt(r.rng.Float64())
		angle := r.rng.Float64() * 2 * math.Pi
		r.chests = append(r.chests, chestState{
			X:    r.border.CenterX + math.Cos(angle)*dist,
			Z:    r.border.CenterZ + math.Sin(angle)*dist,
			Loot: loot.RollMany(r.lootTable, r.rng, r.cfg.LootRollsPerChest),
		})
	}
}

// evaluateRoundEndLocked ends the round when at most one alive, connected
// player remains. The sole survivor, if any, takes the round win.
func (r *Room) evaluateRoundEndLocked() {
	if !r.phase.inMatch() {
		return
	}
	alive := r.aliveConnectedLocked()
	if len(alive) > 1 {
		return
	}

	var survivor *playerState
	if len(alive) == 1 {
		survivor = alive[0]
		survivor.RoundWins++
	}

	winnerID := ""
	if survivor != nil {
		winnerID = survivor.ID
	}
	r.broadcastLocked(protocol.TypeRoundOver, protocol.RoundOver{
		Round:    r.round,
		WinnerID: winnerID,
		Standing: r.leaderboardSnapshotLocked(),
	})

	if r.matchDecidedLocked() {
		r.finishMatchLocked()
		return
	}
	r.beginRoundLocked()
}

// matchDecidedLocked reports whether the match is over: someone reached the
// winning round count, or all rounds have been played.
func (r *Room) matchDecidedLocked() bool {
	if r.round >= r.cfg.MaxRounds {
		return true
	}
	needed := r.cfg.RoundsToWin()
	for _, p := range r.players {
		if p.RoundWins >= needed {
			return true
		}
	}
	return false
}

// finishMatchLocked ends the match, announces the winner, and cancels the
// tick schedule. The room returns to a joinable finished state from which
// the host may start a rematch.
func (r *Room) finishMatchLocked() {
	r.phase = phaseFinished
	r.phaseTicks = 0
	r.stopTickingLocked()

	board := r.leaderboardLocked()
	winnerID := ""
	if len(board) > 0 {
		winnerID = board[0].ID
	}
	r.broadcastLocked(protocol.TypeMatchOver, protocol.MatchOver{
		WinnerID:    winnerID,
		Leaderboard: r.leaderboardSnapshotLocked(),
	})
	r.touchLocked()
}

// leaderboardLocked orders members by round wins descending, then kills
// descending, then deaths ascending. Ties beyond that break on join order so
// the ordering is total and stable.
func (r *Room) leaderboardLocked() []*playerState {
	board := make([]*playerState, 0, len(r.players))
	for _, p := range r.players {
		board = append(board, p)
	}
	sort.Slice(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.RoundWins != b.RoundWins {
			return a.RoundWins > b.RoundWins
		}
		if a.Kills != b.Kills {
			return a.Kills > b.Kills
		}
		if a.Deaths != b.Deaths {
			return a.Deaths < b.Deaths
		}
		return a.joinOrder < b.joinOrder
	})
	return board
}

func (r *Room) leaderboardSnapshotLocked() []protocol.PlayerState {
	board := r.leaderboardLocked()
	out := make([]protocol.PlayerState, 0, len(board))
	for _, p := range board {
		out = append(out, p.snapshot())
	}
	return out
}

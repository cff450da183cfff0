package main

import (
	"time"

	"zonefall/server/internal/protocol"
)

// killFeedEntry is display-only and never authoritative; entries are pruned
// once older than the retention window.
type killFeedEntry struct {
	KillerID  string
	VictimID  string
	Cause     string
	Timestamp time.Time
}

func (e killFeedEntry) snapshot() protocol.KillFeedEntry {
	return protocol.KillFeedEntry{
		KillerID:  e.KillerID,
		VictimID:  e.VictimID,
		Cause:     e.Cause,
		Timestamp: e.Timestamp.UnixMilli(),
	}
}

// pruneKillFeed drops entries older than retention, preserving order.
func pruneKillFeed(feed []killFeedEntry, now time.Time, retention time.Duration) []killFeedEntry {
	cutoff := now.Add(-retention)
	kept := feed[:0]
	for _, entry := range feed {
		if entry.Timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	return kept
}

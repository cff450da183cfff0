package main

import (
	"math"

	"zonefall/server/internal/protocol"
)

// borderState is the circular safe zone. Once Shrinking flips on, Radius is
// non-increasing and clamps at MinRadius.
type borderState struct {
	CenterX    float64
	CenterZ    float64
	Radius     float64
	ShrinkRate float64 // units per second
	MinRadius  float64
	Shrinking  bool
}

func newBorder(cfg Config) borderState {
	return borderState{
		Radius:     cfg.BorderInitialRadius,
		ShrinkRate: cfg.BorderShrinkRate,
		MinRadius:  cfg.BorderMinRadius,
	}
}

// advance shrinks the radius by one tick's worth of the shrink rate.
func (b *borderState) advance(tickRate int) {
	if !b.Shrinking || tickRate <= 0 {
		return
	}
	b.Radius -= b.ShrinkRate / float64(tickRate)
	if b.Radius < b.MinRadius {
		b.Radius = b.MinRadius
	}
}

// contains reports whether the XZ point lies inside the safe zone.
func (b *borderState) contains(x, z float64) bool {
	dx := x - b.CenterX
	dz := z - b.CenterZ
	return math.Hypot(dx, dz) <= b.Radius
}

func (b *borderState) snapshot() protocol.BorderState {
	return protocol.BorderState{
		CenterX:   b.CenterX,
		CenterZ:   b.CenterZ,
		Radius:    b.Radius,
		MinRadius: b.MinRadius,
		Shrinking: b.Shrinking,
	}
}

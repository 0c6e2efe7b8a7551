package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name         string
		points       int
		wantName     string
		wantNext     int
		wantHasNext  bool
		wantProgress float64
	}{
		{name: "zero", points: 0, wantName: "Beginner", wantNext: 100, wantHasNext: true, wantProgress: 0},
		{name: "negative", points: -40, wantName: "Beginner", wantNext: 100, wantHasNext: true, wantProgress: 0},
		{name: "just below starter", points: 99, wantName: "Beginner", wantNext: 100, wantHasNext: true, wantProgress: 99},
		{name: "starter boundary", points: 100, wantName: "Starter", wantNext: 200, wantHasNext: true, wantProgress: 50},
		{name: "starter midway", points: 150, wantName: "Starter", wantNext: 200, wantHasNext: true, wantProgress: 75},
		{name: "achiever", points: 200, wantName: "Achiever", wantNext: 500, wantHasNext: true, wantProgress: 40},
		{name: "expert upper edge", points: 999, wantName: "Expert", wantNext: 1000, wantHasNext: true, wantProgress: 99.9},
		{name: "champion boundary", points: 1000, wantName: "Champion", wantHasNext: false, wantProgress: 100},
		{name: "champion far above", points: 25000, wantName: "Champion", wantHasNext: false, wantProgress: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl := For(tt.points)
			assert.Equal(t, tt.wantName, lvl.Name)
			assert.Equal(t, tt.wantNext, lvl.Next)
			assert.Equal(t, tt.wantHasNext, lvl.HasNext)
			assert.InDelta(t, tt.wantProgress, lvl.Progress, 1e-9)
		})
	}
}

func TestFor_Monotonic(t *testing.T) {
	prev := For(0).Tier
	for p := 1; p <= 1500; p++ {
		tier := For(p).Tier
		if tier < prev {
			t.Fatalf("tier decreased at %d points: %v -> %v", p, prev, tier)
		}
		prev = tier
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "Expert", TierExpert.String())
	assert.Equal(t, "Unknown", Tier(42).String())
}

package service

import (
	"math"
	"testing"
)

func TestRoundUnit(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{100000.4, 100000},
		{100000.6, 100001},
		{9959.999999999, 9960},
		{0.5, 1},
		{-60019.6, -60020},
	}
	for _, tt := range tests {
		if got := RoundUnit(tt.in); got != tt.want {
			t.Errorf("RoundUnit(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(60.0199999); got != 60.02 {
		t.Errorf("Round2 = %v", got)
	}
	if got := Round2(612.345); got != 612.35 {
		t.Errorf("Round2 = %v", got)
	}
}

func TestRoundingNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := RoundUnit(v); got != 0 {
			t.Errorf("RoundUnit(%v) = %d, want 0", v, got)
		}
		if got := Round2(v); got != 0 {
			t.Errorf("Round2(%v) = %v, want 0", v, got)
		}
	}
}

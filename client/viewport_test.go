package client

import (
	"math"
	"testing"
)

func TestComputeViewport(t *testing.T) {
	world := Size{Width: 2048, Height: 2048}
	view := Size{Width: 800, Height: 600}

	tests := []struct {
		name  string
		local Point
		want  Point
	}{
		{"top-left corner", Point{0, 0}, Point{0, 0}},
		{"bottom-right corner", Point{2048, 2048}, Point{1248, 1448}},
		{"center", Point{1024, 1024}, Point{624, 724}},
		{"out of bounds negative", Point{-500, -9000}, Point{0, 0}},
		{"out of bounds positive", Point{1e9, 5000}, Point{1248, 1448}},
		{"infinite", Point{math.Inf(1), math.Inf(-1)}, Point{1248, 0}},
		{"nan", Point{math.NaN(), 300}, Point{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeViewport(tt.local, world, view); got != tt.want {
				t.Fatalf("ComputeViewport(%v) = %v, want %v", tt.local, got, tt.want)
			}
		})
	}
}

func TestComputeViewportSmallWorldPinsToZero(t *testing.T) {
	got := ComputeViewport(Point{300, 900}, Size{Width: 640, Height: 2048}, Size{Width: 800, Height: 600})
	want := Point{0, 600}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

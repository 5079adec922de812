package face

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 0}, []float64{1, 0, 0}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 2}, []float64{-1, -2}, -1.0},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindBestMatchEmptyGallery(t *testing.T) {
	id, sim := FindBestMatch([]float64{1, 0}, nil)
	if id != "" || sim != 0.0 {
		t.Errorf("empty gallery: got (%q, %v), want (\"\", 0)", id, sim)
	}
}

func TestFindBestMatchPicksHighest(t *testing.T) {
	gallery := map[string][]float64{
		"visitor_a": {1, 0, 0},
		"visitor_b": {0, 1, 0},
		"visitor_c": {0.9, 0.1, 0},
	}
	id, sim := FindBestMatch([]float64{1, 0, 0}, gallery)
	if id != "visitor_a" {
		t.Errorf("got %q, want visitor_a", id)
	}
	if math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("got similarity %v, want 1.0", sim)
	}
}

func TestFindBestMatchAllNegative(t *testing.T) {
	// A gallery where every candidate scores below zero never beats the
	// initial 0.0, so no identity is reported.
	gallery := map[string][]float64{
		"visitor_a": {-1, 0},
		"visitor_b": {0, -1},
	}
	id, sim := FindBestMatch([]float64{1, 1}, gallery)
	if id != "" || sim != 0.0 {
		t.Errorf("all-negative gallery: got (%q, %v), want (\"\", 0)", id, sim)
	}
}

func TestFindBestMatchSkipsDimensionMismatch(t *testing.T) {
	gallery := map[string][]float64{
		"visitor_short": {1, 0},
		"visitor_a":     {1, 0, 0},
	}
	id, _ := FindBestMatch([]float64{1, 0, 0}, gallery)
	if id != "visitor_a" {
		t.Errorf("got %q, want visitor_a", id)
	}
}

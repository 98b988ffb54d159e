package bidding

import "testing"

func TestDisplayTransforms(t *testing.T) {
	tests := []struct {
		modifier float64
		sheet    float64
		percent  int64
	}{
		{modifier: 1, sheet: 0, percent: 0},
		{modifier: 0.75, sheet: -0.25, percent: -25},
		{modifier: 1.3, sheet: 0.3, percent: 30},
		{modifier: 1.25, sheet: 0.25, percent: 25},
		{modifier: 1.005, sheet: 0, percent: 0},
		{modifier: 0.995, sheet: 0, percent: 0},
		{modifier: 0.875, sheet: -0.12, percent: -12},
		{modifier: 0.9, sheet: -0.1, percent: -10},
		{modifier: 1.013, sheet: 0.01, percent: 1},
	}

	for _, tt := range tests {
		if got := SheetValue(tt.modifier); got != tt.sheet {
			t.Fatalf("SheetValue(%v) = %v, want %v", tt.modifier, got, tt.sheet)
		}
		if got := LogPercent(tt.modifier); got != tt.percent {
			t.Fatalf("LogPercent(%v) = %v, want %v", tt.modifier, got, tt.percent)
		}
	}
}

func TestDisplayValueNeutralBand(t *testing.T) {
	if !DisplayValue(1.009).IsZero() {
		t.Fatalf("expected values just above 1 to display as zero")
	}
	if DisplayValue(0.99).IsZero() {
		t.Fatalf("expected values below 1 to keep their sign")
	}
}

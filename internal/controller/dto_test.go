package controller

import "testing"

func TestFloatToCents(t *testing.T) {
	tests := []struct {
		rupees float64
		paisa  int64
	}{
		{500.0, 50000},
		{99.99, 9999}, // no exact float64 representation; must round, not truncate
		{0.01, 1},
		{1499.95, 149995},
		{0, 0},
	}

	for _, tt := range tests {
		if got := floatToCents(tt.rupees); got != tt.paisa {
			t.Errorf("floatToCents(%v) = %d, want %d", tt.rupees, got, tt.paisa)
		}
	}
}

func TestCentsToFloat(t *testing.T) {
	if got := centsToFloat(9999); got != 99.99 {
		t.Errorf("centsToFloat(9999) = %v, want 99.99", got)
	}
	if got := centsToFloat(50000); got != 500.0 {
		t.Errorf("centsToFloat(50000) = %v, want 500.0", got)
	}
}

package nba_test

import (
	"testing"

	"github.com/alejandrodnm/pratracker/internal/adapters/nba"
	"github.com/stretchr/testify/assert"
)

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PT36M25.00S", 36 + 25.0/60},
		{"PT36M", 36},
		{"PT45.50S", 45.5 / 60},
		{"24:30", 24.5},
		{"31", 31},
		{"31.5", 31.5},
		{"1980", 33}, // seconds
		{"", 0},
		{"DNP", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, nba.ParseMinutes(tt.in), 1e-9, tt.in)
	}
}

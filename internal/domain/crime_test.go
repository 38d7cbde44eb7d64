package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateCrimeBaseline(t *testing.T) {
	assert.Equal(t, 195.0, StateCrimeBaseline("New Jersey"))
	assert.Equal(t, 996.0, StateCrimeBaseline("DC"))
	assert.Equal(t, 400.0, StateCrimeBaseline("Puerto Rico"))
	assert.Equal(t, 400.0, StateCrimeBaseline(""))
}

func TestCrimeIndex(t *testing.T) {
	tests := []struct {
		name     string
		baseline float64
		income   float64
		edu      float64
		police   int
		want     float64
	}{
		{"typical urban", 195, 85000, 40, 1, 24.8},
		{"no local signals", 400, 0, 0, 0, 73.0},
		{"affluent, saturated police presence", 108, 200000, 80, 20, 0.0},
		{"highest baseline, no mitigation", 996, 0, 0, 0, 99.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CrimeIndex(tt.baseline, tt.income, tt.edu, tt.police)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCrimeIndex_PolicePresenceSaturates(t *testing.T) {
	at12 := CrimeIndex(400, 50000, 20, 12)
	at40 := CrimeIndex(400, 50000, 20, 40)
	assert.Equal(t, at12, at40)
}

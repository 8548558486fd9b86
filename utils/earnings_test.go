package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 100.0, Round2(99.999))
	// Half-up at exactly .005
	assert.Equal(t, 0.01, Round2(0.005))
}

func TestRoundDollars(t *testing.T) {
	assert.Equal(t, 12.0, RoundDollars(12.4))
	assert.Equal(t, 13.0, RoundDollars(12.5))
	assert.Equal(t, 0.0, RoundDollars(0.49))
}

func TestCalculateEarnings(t *testing.T) {
	// $50 per million views, 2.5M views = $125
	assert.Equal(t, 125.0, CalculateEarnings(50, 2_500_000, nil))

	// Sub-cent amounts round half-up
	assert.Equal(t, 0.05, CalculateEarnings(50, 1000, nil))
	assert.Equal(t, 0.0, CalculateEarnings(50, 99, nil)) // 0.00495 rounds to 0.00

	// Zero rate and zero views both yield zero
	assert.Equal(t, 0.0, CalculateEarnings(0, 1_000_000, nil))
	assert.Equal(t, 0.0, CalculateEarnings(50, 0, nil))
}

func TestCalculateEarningsCap(t *testing.T) {
	cap := 100.0

	// Above cap gets clamped
	assert.Equal(t, 100.0, CalculateEarnings(50, 10_000_000, &cap))

	// Below cap is untouched
	assert.Equal(t, 50.0, CalculateEarnings(50, 1_000_000, &cap))

	// Exactly at cap is untouched
	assert.Equal(t, 100.0, CalculateEarnings(50, 2_000_000, &cap))
}

func TestCalculateEarningsInvalidInput(t *testing.T) {
	assert.Equal(t, 0.0, CalculateEarnings(math.NaN(), 1_000_000, nil))
	assert.Equal(t, 0.0, CalculateEarnings(math.Inf(1), 1_000_000, nil))
	assert.Equal(t, 0.0, CalculateEarnings(math.Inf(-1), 1_000_000, nil))
	assert.Equal(t, 0.0, CalculateEarnings(-50, 1_000_000, nil))
	assert.Equal(t, 0.0, CalculateEarnings(50, -1, nil))
}

package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomePrice_NoOutcomeVolume(t *testing.T) {
	// Primer bet sobre un resultado: siempre arranca en 0.5, da igual el
	// volumen total del mercado.
	assert.Equal(t, 0.5, OutcomePrice(0, 0))
	assert.Equal(t, 0.5, OutcomePrice(0, 10000))
}

func TestOutcomePrice_Ratio(t *testing.T) {
	assert.InDelta(t, 0.5, OutcomePrice(100, 200), 1e-9)
	assert.InDelta(t, 0.8, OutcomePrice(400, 500), 1e-9)
}

func TestOutcomePrice_ClampFloor(t *testing.T) {
	// 1/1000 = 0.001 → acotado al 5%
	assert.Equal(t, PriceFloor, OutcomePrice(1, 1000))
}

func TestOutcomePrice_ClampCap(t *testing.T) {
	// 999/1000 = 0.999 → acotado al 95%
	assert.Equal(t, PriceCap, OutcomePrice(999, 1000))
}

func TestOutcomePrice_AlwaysBounded(t *testing.T) {
	// Propiedad: para cualquier distribución de volumen el precio queda en
	// [PriceFloor, PriceCap].
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		outcome := rng.Float64() * 1e6
		total := outcome + rng.Float64()*1e6
		p := OutcomePrice(outcome, total)
		assert.GreaterOrEqual(t, p, PriceFloor)
		assert.LessOrEqual(t, p, PriceCap)
	}
}

func TestSettlePnL_Winner(t *testing.T) {
	// Entrada a 0.5: payout = 100 × (1-0.5)/0.5 = 100
	assert.InDelta(t, 100.0, SettlePnL("Yes", "Yes", 100, 0.5), 1e-9)

	// Entrada barata (0.05): múltiplo 19x
	assert.InDelta(t, 1900.0, SettlePnL("Yes", "Yes", 100, 0.05), 1e-9)

	// Entrada cara (0.95): múltiplo pequeño
	assert.InDelta(t, 100*(1-0.95)/0.95, SettlePnL("Yes", "Yes", 100, 0.95), 1e-9)
}

func TestSettlePnL_Loser(t *testing.T) {
	assert.Equal(t, -100.0, SettlePnL("No", "Yes", 100, 0.5))
}

func TestSettlePnL_WinnerNeverWorseThanStake(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		amount := rng.Float64() * 1e4
		price := PriceFloor + rng.Float64()*(PriceCap-PriceFloor)
		assert.GreaterOrEqual(t, SettlePnL("Yes", "Yes", amount, price), -amount)
	}
}

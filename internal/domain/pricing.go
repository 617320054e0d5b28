package domain

// pricing.go — precio por resultado y PnL de liquidación.
//
// El precio es una probabilidad implícita derivada del volumen relativo:
// outcomeVolume / totalVolume, acotado a [PriceFloor, PriceCap]. Un
// resultado sin volumen previo arranca en PriceDefault (50%) sea cual sea
// el tamaño de la primera apuesta: es el precio inicial intencional del
// mercado, no una función del stake.

const (
	// PriceFloor y PriceCap acotan el precio: nunca se cotiza por debajo
	// del 5% ni por encima del 95% aunque el ratio bruto lo diga.
	PriceFloor = 0.05
	PriceCap   = 0.95

	// PriceDefault es el precio de arranque de un resultado sin volumen.
	PriceDefault = 0.5
)

// OutcomePrice devuelve el precio implícito de un resultado dado su volumen
// acumulado y el volumen total del mercado, siempre en [PriceFloor, PriceCap].
func OutcomePrice(outcomeVolume, totalVolume float64) float64 {
	if outcomeVolume <= 0 || totalVolume <= 0 {
		return PriceDefault
	}
	return clamp(outcomeVolume/totalVolume, PriceFloor, PriceCap)
}

// SettlePnL devuelve el PnL realizado de una posición tras la resolución.
// Ganadora: amount × (1-price)/price — cuanto más barata la entrada, mayor
// el múltiplo. Perdedora: pérdida íntegra del stake.
func SettlePnL(outcome, winningOutcome string, amount, price float64) float64 {
	if outcome == winningOutcome {
		return amount * (1 - price) / price
	}
	return -amount
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

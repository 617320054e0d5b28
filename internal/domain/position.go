package domain

import "time"

// Position es una apuesta individual sobre un resultado de un mercado.
// Append-only: se crea al apostar y muta exactamente una vez, cuando la
// resolución o cancelación del mercado fija su PnL.
type Position struct {
	ID       string
	MarketID string
	Outcome  string
	Bettor   string
	Amount   float64
	Price    float64  // precio de entrada en [PriceFloor, PriceCap]
	PnL      *float64 // nil hasta que el mercado se resuelve o cancela
	PlacedAt time.Time
}

// Settled devuelve true si la posición ya tiene PnL fijado.
func (p Position) Settled() bool {
	return p.PnL != nil
}

package domain

import "time"

// Resolution es el registro del desenlace de un mercado. Como máximo hay
// una por mercado y es inmutable una vez creada.
type Resolution struct {
	MarketID       string
	WinningOutcome string
	Data           map[string]any // evidencia arbitraria aportada por la fuente
	ResolvedAt     time.Time
	Source         string
}

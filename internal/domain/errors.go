package domain

import "errors"

// Errores de validación y de estado del engine. Todos son definitivos:
// ninguno es transitorio ni reintentable, el caller decide qué mostrar.
var (
	ErrInvalidOutcomes  = errors.New("outcomes must be non-empty and unique")
	ErrInvalidTimeRange = errors.New("end time must be in the future")
	ErrMarketNotFound   = errors.New("market not found")
	ErrMarketNotActive  = errors.New("market is not active")
	ErrMarketExpired    = errors.New("market has ended")
	ErrInvalidOutcome   = errors.New("outcome not in market outcome set")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrNoResolution     = errors.New("market has no resolution")
)

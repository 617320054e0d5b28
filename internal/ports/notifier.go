package ports

import (
	"context"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// Notifier anuncia los eventos relevantes del engine al exterior.
// Las implementaciones no deben bloquear más allá de lo razonable; los
// errores se loguean y no abortan la operación que los originó.
type Notifier interface {
	// MarketCreated se emite tras crear un mercado.
	MarketCreated(ctx context.Context, m domain.Market) error

	// MarketSettled se emite tras resolver o cancelar un mercado, con las
	// posiciones ya liquidadas.
	MarketSettled(ctx context.Context, m domain.Market, res *domain.Resolution, positions []domain.Position) error
}

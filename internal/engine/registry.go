package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// Registry crea, guarda y consulta mercados. Es el dueño exclusivo de los
// registros Market: nadie los muta salvo a través del engine.
type Registry struct {
	c *core
}

// CreateMarket valida el borrador y registra un mercado nuevo en estado
// active con todos los contadores a cero. Devuelve el id generado.
func (r *Registry) CreateMarket(ctx context.Context, draft domain.MarketDraft) (string, error) {
	now := r.c.clock.Now()
	if err := draft.Validate(now); err != nil {
		return "", fmt.Errorf("registry.CreateMarket: %w", err)
	}

	m := domain.Market{
		ID:             r.c.ids.NewID(),
		Title:          draft.Title,
		Description:    draft.Description,
		Category:       draft.Category,
		OutcomeType:    draft.OutcomeType,
		Outcomes:       append([]string(nil), draft.Outcomes...),
		EndTime:        draft.EndTime,
		ResolutionTime: draft.EndTime.Add(r.c.cfg.GracePeriod),
		Status:         domain.StatusActive,
		Creator:        draft.Creator,
		CreatedAt:      now,
	}

	r.c.mu.Lock()
	r.c.markets[m.ID] = &marketEntry{market: m}
	r.c.mu.Unlock()

	r.c.journalMarket(ctx, snapshotMarket(m))
	r.c.notifyCreated(ctx, snapshotMarket(m))
	return m.ID, nil
}

// Market devuelve una copia del mercado o ErrMarketNotFound.
func (r *Registry) Market(marketID string) (domain.Market, error) {
	e, ok := r.c.entry(marketID)
	if !ok {
		return domain.Market{}, fmt.Errorf("registry.Market: %s: %w", marketID, domain.ErrMarketNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotMarket(e.market), nil
}

// ActiveMarkets devuelve los mercados en estado active, sin orden definido.
func (r *Registry) ActiveMarkets() []domain.Market {
	return r.collect(func(m domain.Market) bool { return m.Active() })
}

// MarketsByCategory devuelve los mercados de una categoría, sin orden definido.
func (r *Registry) MarketsByCategory(category domain.Category) []domain.Market {
	return r.collect(func(m domain.Market) bool { return m.Category == category })
}

// DueForResolution devuelve los mercados activos cuya hora de resolución ya
// pasó. El engine nunca los transiciona solo: un scheduler externo decide
// cuándo y con qué resultado resolverlos.
func (r *Registry) DueForResolution(now time.Time) []domain.Market {
	return r.collect(func(m domain.Market) bool {
		return m.Active() && !now.Before(m.ResolutionTime)
	})
}

func (r *Registry) collect(keep func(domain.Market) bool) []domain.Market {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	var out []domain.Market
	for _, e := range r.c.markets {
		e.mu.Lock()
		if keep(e.market) {
			out = append(out, snapshotMarket(e.market))
		}
		e.mu.Unlock()
	}
	return out
}

package engine

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// Resolver finaliza mercados. Es el dueño exclusivo de los registros
// Resolution: como máximo uno por mercado, inmutable una vez creado.
type Resolver struct {
	c *core
}

// Resolve declara el resultado ganador de un mercado activo y liquida el
// PnL de todas sus posiciones como una única operación bajo el lock del
// mercado. Un segundo intento falla con ErrMarketNotActive porque el
// estado cambia en el primero.
func (r *Resolver) Resolve(ctx context.Context, marketID, winningOutcome string, data map[string]any, source string) error {
	e, ok := r.c.entry(marketID)
	if !ok {
		return fmt.Errorf("resolver.Resolve: market %s: %w", marketID, domain.ErrMarketNotFound)
	}

	mkt, res, settled, err := r.applyResolution(e, winningOutcome, data, source)
	if err != nil {
		return fmt.Errorf("resolver.Resolve: market %s: %w", marketID, err)
	}

	r.c.journalMarket(ctx, mkt)
	r.c.journalResolution(ctx, res)
	for _, p := range settled {
		r.c.journalPosition(ctx, p)
	}
	r.c.notifySettled(ctx, mkt, &res, settled)
	return nil
}

func (r *Resolver) applyResolution(e *marketEntry, winningOutcome string, data map[string]any, source string) (domain.Market, domain.Resolution, []domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.market.Active() {
		return domain.Market{}, domain.Resolution{}, nil, domain.ErrMarketNotActive
	}
	if !e.market.HasOutcome(winningOutcome) {
		return domain.Market{}, domain.Resolution{}, nil, domain.ErrInvalidOutcome
	}

	now := r.c.clock.Now()
	e.market.Status = domain.StatusResolved
	res := domain.Resolution{
		MarketID:       e.market.ID,
		WinningOutcome: winningOutcome,
		Data:           data,
		ResolvedAt:     now,
		Source:         source,
	}
	e.resolution = &res

	for i := range e.positions {
		p := &e.positions[i]
		pnl := domain.SettlePnL(p.Outcome, winningOutcome, p.Amount, p.Price)
		p.PnL = &pnl
	}

	return snapshotMarket(e.market), res, snapshotPositions(e.positions), nil
}

// Cancel transiciona un mercado activo a cancelled y devuelve el stake de
// cada posición (PnL = 0). No crea registro de resolución.
func (r *Resolver) Cancel(ctx context.Context, marketID string) error {
	e, ok := r.c.entry(marketID)
	if !ok {
		return fmt.Errorf("resolver.Cancel: market %s: %w", marketID, domain.ErrMarketNotFound)
	}

	mkt, settled, err := r.applyCancel(e)
	if err != nil {
		return fmt.Errorf("resolver.Cancel: market %s: %w", marketID, err)
	}

	r.c.journalMarket(ctx, mkt)
	for _, p := range settled {
		r.c.journalPosition(ctx, p)
	}
	r.c.notifySettled(ctx, mkt, nil, settled)
	return nil
}

func (r *Resolver) applyCancel(e *marketEntry) (domain.Market, []domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.market.Active() {
		return domain.Market{}, nil, domain.ErrMarketNotActive
	}

	e.market.Status = domain.StatusCancelled
	for i := range e.positions {
		pnl := 0.0
		e.positions[i].PnL = &pnl
	}

	return snapshotMarket(e.market), snapshotPositions(e.positions), nil
}

// Resolution devuelve el registro de resolución de un mercado.
// ErrMarketNotFound si el mercado no existe, ErrNoResolution si existe
// pero aún no se ha resuelto.
func (r *Resolver) Resolution(marketID string) (domain.Resolution, error) {
	e, ok := r.c.entry(marketID)
	if !ok {
		return domain.Resolution{}, fmt.Errorf("resolver.Resolution: market %s: %w", marketID, domain.ErrMarketNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.resolution == nil {
		return domain.Resolution{}, fmt.Errorf("resolver.Resolution: market %s: %w", marketID, domain.ErrNoResolution)
	}
	return *e.resolution, nil
}

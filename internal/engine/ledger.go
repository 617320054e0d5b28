package engine

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// Ledger registra apuestas y calcula el precio vivo por resultado. Es el
// dueño exclusivo de los registros Position, indexados por mercado.
type Ledger struct {
	c *core
}

// PlaceBet valida las precondiciones en orden (mercado existe, activo, no
// expirado, resultado válido, importe positivo) y registra una posición al
// precio vigente, actualizando los acumuladores del mercado. Devuelve el
// id de la posición.
func (l *Ledger) PlaceBet(ctx context.Context, marketID, outcome string, amount float64, bettor string) (string, error) {
	e, ok := l.c.entry(marketID)
	if !ok {
		return "", fmt.Errorf("ledger.PlaceBet: market %s: %w", marketID, domain.ErrMarketNotFound)
	}

	pos, mkt, err := l.applyBet(e, outcome, amount, bettor)
	if err != nil {
		return "", fmt.Errorf("ledger.PlaceBet: market %s: %w", marketID, err)
	}

	l.c.journalMarket(ctx, mkt)
	l.c.journalPosition(ctx, pos)
	return pos.ID, nil
}

// applyBet comprueba y muta bajo el lock del mercado. El precio se calcula
// con el volumen previo a la apuesta en curso.
func (l *Ledger) applyBet(e *marketEntry, outcome string, amount float64, bettor string) (domain.Position, domain.Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.c.clock.Now()
	var err error
	switch {
	case !e.market.Active():
		err = domain.ErrMarketNotActive
	case e.market.Expired(now):
		err = domain.ErrMarketExpired
	case !e.market.HasOutcome(outcome):
		err = domain.ErrInvalidOutcome
	case amount <= 0:
		err = domain.ErrInvalidAmount
	}
	if err != nil {
		return domain.Position{}, domain.Market{}, err
	}

	pos := domain.Position{
		ID:       l.c.ids.NewID(),
		MarketID: e.market.ID,
		Outcome:  outcome,
		Bettor:   bettor,
		Amount:   amount,
		Price:    priceLocked(e, outcome),
		PlacedAt: now,
	}
	e.positions = append(e.positions, pos)

	e.market.TotalVolume += amount
	e.market.TotalParticipants++
	e.market.Liquidity += amount * l.c.cfg.LiquidityRate
	e.market.Fees += amount * l.c.cfg.FeeRate

	return pos, snapshotMarket(e.market), nil
}

// priceLocked suma el volumen previo del resultado con el lock ya tomado.
func priceLocked(e *marketEntry, outcome string) float64 {
	var outcomeVolume float64
	for _, p := range e.positions {
		if p.Outcome == outcome {
			outcomeVolume += p.Amount
		}
	}
	return domain.OutcomePrice(outcomeVolume, e.market.TotalVolume)
}

// Price devuelve el precio implícito actual de un resultado sin apostar.
func (l *Ledger) Price(marketID, outcome string) (float64, error) {
	e, ok := l.c.entry(marketID)
	if !ok {
		return 0, fmt.Errorf("ledger.Price: market %s: %w", marketID, domain.ErrMarketNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.market.HasOutcome(outcome) {
		return 0, fmt.Errorf("ledger.Price: market %s: %w", marketID, domain.ErrInvalidOutcome)
	}
	return priceLocked(e, outcome), nil
}

// Positions devuelve las posiciones de un mercado en orden de llegada.
func (l *Ledger) Positions(marketID string) ([]domain.Position, error) {
	e, ok := l.c.entry(marketID)
	if !ok {
		return nil, fmt.Errorf("ledger.Positions: market %s: %w", marketID, domain.ErrMarketNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotPositions(e.positions), nil
}

// AllPositions devuelve todas las posiciones de todos los mercados, para
// la vista de histórico global.
func (l *Ledger) AllPositions() []domain.Position {
	return l.filter(func(domain.Position) bool { return true })
}

// PositionsByBettor filtra el histórico por el dueño de la posición.
func (l *Ledger) PositionsByBettor(bettor string) []domain.Position {
	return l.filter(func(p domain.Position) bool { return p.Bettor == bettor })
}

func (l *Ledger) filter(keep func(domain.Position) bool) []domain.Position {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()

	var out []domain.Position
	for _, e := range l.c.markets {
		e.mu.Lock()
		for _, p := range e.positions {
			if keep(p) {
				out = append(out, snapshotPosition(p))
			}
		}
		e.mu.Unlock()
	}
	return out
}

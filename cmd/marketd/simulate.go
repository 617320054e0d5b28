package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/marketd/config"
	"github.com/alejandrodnm/marketd/internal/domain"
	"github.com/alejandrodnm/marketd/internal/engine"
)

// runSimulation genera flujo sintético: apuestas aleatorias a ritmo
// limitado sobre los mercados activos, y resolución de los mercados
// vencidos con un ganador sorteado por peso de volumen. Es el modo demo
// del daemon, equivalente a operar contra usuarios reales.
func runSimulation(ctx context.Context, eng *engine.Engine, cfg config.SimulatorConfig) {
	slog.Info("simulation starting",
		"bets_per_second", cfg.BetsPerSecond,
		"max_bet", cfg.MaxBetAmount,
		"bettors", cfg.Bettors,
	)

	limiter := rate.NewLimiter(rate.Limit(cfg.BetsPerSecond), 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		if err := limiter.Wait(ctx); err != nil {
			slog.Info("simulation stopped")
			return
		}

		if err := placeRandomBet(ctx, eng, rng, cfg); err != nil {
			slog.Debug("simulated bet rejected", "err", err)
		}
		resolveDueMarkets(ctx, eng, rng)
	}
}

// placeRandomBet apuesta un importe aleatorio a un resultado aleatorio de
// un mercado activo elegido al azar.
func placeRandomBet(ctx context.Context, eng *engine.Engine, rng *rand.Rand, cfg config.SimulatorConfig) error {
	markets := eng.Registry.ActiveMarkets()
	if len(markets) == 0 {
		return nil
	}

	m := markets[rng.Intn(len(markets))]
	outcome := m.Outcomes[rng.Intn(len(m.Outcomes))]
	amount := 1 + rng.Float64()*(cfg.MaxBetAmount-1)
	bettor := fmt.Sprintf("sim-bettor-%d", 1+rng.Intn(cfg.Bettors))

	id, err := eng.Ledger.PlaceBet(ctx, m.ID, outcome, amount, bettor)
	if err != nil {
		return err
	}

	slog.Debug("simulated bet placed",
		"position", id,
		"market", m.ID,
		"outcome", outcome,
		"amount", fmt.Sprintf("%.2f", amount),
		"bettor", bettor,
	)
	return nil
}

// resolveDueMarkets liquida los mercados cuya hora de resolución ya pasó,
// sorteando el ganador con probabilidad proporcional al volumen apostado.
func resolveDueMarkets(ctx context.Context, eng *engine.Engine, rng *rand.Rand) {
	for _, m := range eng.Registry.DueForResolution(time.Now().UTC()) {
		positions, err := eng.Ledger.Positions(m.ID)
		if err != nil {
			slog.Warn("failed to load positions for due market", "market", m.ID, "err", err)
			continue
		}

		winner := weightedWinner(m.Outcomes, positions, rng)
		err = eng.Resolver.Resolve(ctx, m.ID, winner,
			map[string]any{"mode": "simulation"}, "simulator")
		if err != nil {
			slog.Warn("failed to resolve due market", "market", m.ID, "err", err)
			continue
		}
		slog.Info("simulated resolution", "market", m.ID, "title", m.Title, "winner", winner)
	}
}

// weightedWinner sortea un resultado con probabilidad proporcional a su
// volumen apostado; uniforme si el mercado no tiene volumen.
func weightedWinner(outcomes []string, positions []domain.Position, rng *rand.Rand) string {
	volumes := make(map[string]float64, len(outcomes))
	var total float64
	for _, p := range positions {
		volumes[p.Outcome] += p.Amount
		total += p.Amount
	}

	if total <= 0 {
		return outcomes[rng.Intn(len(outcomes))]
	}

	target := rng.Float64() * total
	for _, o := range outcomes {
		target -= volumes[o]
		if target <= 0 {
			return o
		}
	}
	return outcomes[len(outcomes)-1]
}

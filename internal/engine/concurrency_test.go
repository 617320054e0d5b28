package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketd/internal/adapters/ident"
	"github.com/alejandrodnm/marketd/internal/domain"
	"github.com/alejandrodnm/marketd/internal/engine"
)

// Apuestas concurrentes contra una resolución en vuelo: ninguna posición
// puede quedar sin liquidar y los acumuladores tienen que cuadrar con las
// apuestas aceptadas. Ejecutar con -race.
func TestPlaceBetAndResolve_Concurrent(t *testing.T) {
	eng := engine.New(engine.DefaultConfig(), ident.SystemClock{}, ident.UUID{}, nil, nil)
	ctx := context.Background()

	id, err := eng.Registry.CreateMarket(ctx, domain.MarketDraft{
		Title:       "Concurrent?",
		Category:    domain.CategoryCrypto,
		OutcomeType: domain.OutcomeBinary,
		Outcomes:    []string{"Yes", "No"},
		EndTime:     time.Now().UTC().Add(time.Hour),
		Creator:     "tester",
	})
	require.NoError(t, err)

	const workers = 16
	const betsPerWorker = 50

	var accepted, rejected atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			outcome := "Yes"
			if w%2 == 0 {
				outcome = "No"
			}
			for i := 0; i < betsPerWorker; i++ {
				_, err := eng.Ledger.PlaceBet(ctx, id, outcome, 1, "worker")
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, domain.ErrMarketNotActive):
					rejected.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(w)
	}

	// Resolución a mitad del fuego cruzado
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(time.Millisecond)
		if err := eng.Resolver.Resolve(ctx, id, "Yes", nil, "test"); err != nil {
			t.Errorf("resolve failed: %v", err)
		}
	}()

	wg.Wait()

	positions, err := eng.Ledger.Positions(id)
	require.NoError(t, err)
	require.Equal(t, accepted.Load(), int64(len(positions)))

	m, err := eng.Registry.Market(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, m.Status)
	assert.InDelta(t, float64(accepted.Load()), m.TotalVolume, 1e-6)
	assert.Equal(t, int(accepted.Load()), m.TotalParticipants)

	// Ninguna posición sin PnL: o entró antes de resolver y se liquidó, o
	// no entró
	for _, p := range positions {
		require.True(t, p.Settled(), "position %s left unsettled", p.ID)
	}
}

// Mercados distintos no comparten lock: las operaciones en paralelo sobre
// mercados independientes no se estorban.
func TestIndependentMarkets_Parallel(t *testing.T) {
	eng := engine.New(engine.DefaultConfig(), ident.SystemClock{}, ident.UUID{}, nil, nil)
	ctx := context.Background()

	const markets = 8
	ids := make([]string, markets)
	for i := range ids {
		id, err := eng.Registry.CreateMarket(ctx, domain.MarketDraft{
			Title:       "Market?",
			Category:    domain.CategoryCrypto,
			OutcomeType: domain.OutcomeBinary,
			Outcomes:    []string{"Yes", "No"},
			EndTime:     time.Now().UTC().Add(time.Hour),
			Creator:     "tester",
		})
		require.NoError(t, err)
		ids[i] = id
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := eng.Ledger.PlaceBet(ctx, id, "Yes", 2, "worker")
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		m, err := eng.Registry.Market(id)
		require.NoError(t, err)
		assert.InDelta(t, 200.0, m.TotalVolume, 1e-9)
		assert.Equal(t, 100, m.TotalParticipants)
	}
}

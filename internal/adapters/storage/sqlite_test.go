package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketd/internal/adapters/storage"
	"github.com/alejandrodnm/marketd/internal/domain"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func makeMarket(id string) domain.Market {
	return domain.Market{
		ID:             id,
		Title:          "Will X happen?",
		Description:    "test",
		Category:       domain.CategoryCrypto,
		OutcomeType:    domain.OutcomeBinary,
		Outcomes:       []string{"Yes", "No"},
		EndTime:        base.Add(time.Hour),
		ResolutionTime: base.Add(25 * time.Hour),
		Status:         domain.StatusActive,
		Creator:        "tester",
		CreatedAt:      base,
	}
}

func TestSQLiteStorage_MarketRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	m := makeMarket("m1")
	require.NoError(t, db.UpsertMarket(ctx, m))

	loaded, err := db.LoadMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.Category, got.Category)
	assert.Equal(t, m.Outcomes, got.Outcomes)
	assert.Equal(t, m.Status, got.Status)
	assert.True(t, m.EndTime.Equal(got.EndTime))
	assert.True(t, m.ResolutionTime.Equal(got.ResolutionTime))
}

func TestSQLiteStorage_UpsertUpdatesCounters(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	m := makeMarket("m1")
	require.NoError(t, db.UpsertMarket(ctx, m))

	m.TotalVolume = 500
	m.TotalParticipants = 3
	m.Liquidity = 50
	m.Fees = 10
	m.Status = domain.StatusResolved
	require.NoError(t, db.UpsertMarket(ctx, m))

	loaded, err := db.LoadMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1) // upsert, no duplica
	assert.Equal(t, 500.0, loaded[0].TotalVolume)
	assert.Equal(t, 3, loaded[0].TotalParticipants)
	assert.Equal(t, domain.StatusResolved, loaded[0].Status)
}

// Un upsert rezagado con un snapshot anterior a la resolución no puede
// devolver el mercado a active ni rebobinar sus acumuladores.
func TestSQLiteStorage_UpsertIgnoresStaleWriteAfterTerminal(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	m := makeMarket("m1")
	m.Status = domain.StatusResolved
	m.TotalVolume = 200
	m.TotalParticipants = 2
	require.NoError(t, db.UpsertMarket(ctx, m))

	stale := makeMarket("m1")
	stale.TotalVolume = 100
	stale.TotalParticipants = 1
	require.NoError(t, db.UpsertMarket(ctx, stale))

	loaded, err := db.LoadMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.StatusResolved, loaded[0].Status)
	assert.Equal(t, 200.0, loaded[0].TotalVolume)
	assert.Equal(t, 2, loaded[0].TotalParticipants)
}

// Dos journals de apuesta sobre un mercado activo pueden cruzarse: los
// acumuladores se quedan con el valor más alto, nunca retroceden.
func TestSQLiteStorage_UpsertCountersNeverShrink(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	m := makeMarket("m1")
	m.TotalVolume = 300
	m.TotalParticipants = 2
	m.Liquidity = 30
	m.Fees = 6
	require.NoError(t, db.UpsertMarket(ctx, m))

	stale := makeMarket("m1")
	stale.TotalVolume = 100
	stale.TotalParticipants = 1
	stale.Liquidity = 10
	stale.Fees = 2
	require.NoError(t, db.UpsertMarket(ctx, stale))

	loaded, err := db.LoadMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.StatusActive, loaded[0].Status)
	assert.Equal(t, 300.0, loaded[0].TotalVolume)
	assert.Equal(t, 2, loaded[0].TotalParticipants)
	assert.Equal(t, 30.0, loaded[0].Liquidity)
	assert.Equal(t, 6.0, loaded[0].Fees)
}

func TestSQLiteStorage_PositionLifecycle(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	p := domain.Position{
		ID:       "p1",
		MarketID: "m1",
		Outcome:  "Yes",
		Bettor:   "alice",
		Amount:   100,
		Price:    0.5,
		PlacedAt: base,
	}
	require.NoError(t, db.SavePosition(ctx, p))

	loaded, err := db.LoadPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Nil(t, loaded[0].PnL) // sin liquidar

	pnl := 100.0
	p.PnL = &pnl
	require.NoError(t, db.SavePosition(ctx, p))

	loaded, err = db.LoadPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1) // upsert, no duplica
	require.NotNil(t, loaded[0].PnL)
	assert.Equal(t, 100.0, *loaded[0].PnL)
}

// Las escrituras del journal pueden llegar desordenadas: un snapshot de la
// apuesta (pnl NULL) que aterriza después de la liquidación no puede borrar
// el pnl, y la liquidación puede aterrizar antes que el insert de la apuesta.
func TestSQLiteStorage_SavePosition_PnLSurvivesStaleWrite(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	unsettled := domain.Position{
		ID: "p1", MarketID: "m1", Outcome: "Yes", Bettor: "alice",
		Amount: 100, Price: 0.5, PlacedAt: base,
	}
	pnl := 100.0
	settled := unsettled
	settled.PnL = &pnl

	// liquidación primero, insert de apuesta rezagado después
	require.NoError(t, db.SavePosition(ctx, settled))
	require.NoError(t, db.SavePosition(ctx, unsettled))

	loaded, err := db.LoadPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.NotNil(t, loaded[0].PnL)
	assert.Equal(t, 100.0, *loaded[0].PnL)
}

func TestSQLiteStorage_ResolutionRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	r := domain.Resolution{
		MarketID:       "m1",
		WinningOutcome: "Yes",
		Data:           map[string]any{"source_url": "https://example.com/feed"},
		ResolvedAt:     base,
		Source:         "oracle",
	}
	require.NoError(t, db.SaveResolution(ctx, r))

	loaded, err := db.LoadResolutions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, r.WinningOutcome, loaded[0].WinningOutcome)
	assert.Equal(t, r.Source, loaded[0].Source)
	assert.Equal(t, r.Data, loaded[0].Data)
}

func TestSQLiteStorage_ResolutionWithoutData(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	r := domain.Resolution{MarketID: "m1", WinningOutcome: "No", ResolvedAt: base, Source: "manual"}
	require.NoError(t, db.SaveResolution(ctx, r))

	loaded, err := db.LoadResolutions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Nil(t, loaded[0].Data)
}

func TestSQLiteStorage_EmptyLoads(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	markets, err := db.LoadMarkets(ctx)
	require.NoError(t, err)
	assert.Empty(t, markets)

	positions, err := db.LoadPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)

	resolutions, err := db.LoadResolutions(ctx)
	require.NoError(t, err)
	assert.Empty(t, resolutions)
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/marketd/internal/domain"
	"github.com/alejandrodnm/marketd/internal/ports"
)

// Config contiene los parámetros económicos del engine.
type Config struct {
	// GracePeriod separa el cierre de apuestas de la resolución:
	// ResolutionTime = EndTime + GracePeriod.
	GracePeriod time.Duration

	// FeeRate y LiquidityRate son las fracciones del stake que alimentan
	// los acumuladores de fees y liquidez del mercado en cada apuesta.
	FeeRate       float64
	LiquidityRate float64
}

// DefaultConfig devuelve los parámetros de producción: 24h de gracia,
// 2% de fee y 10% a liquidez.
func DefaultConfig() Config {
	return Config{
		GracePeriod:   24 * time.Hour,
		FeeRate:       0.02,
		LiquidityRate: 0.10,
	}
}

// marketEntry agrupa un mercado con sus posiciones y su resolución bajo un
// único lock. PlaceBet y Resolve sobre el mismo mercado son mutuamente
// excluyentes; operaciones sobre mercados distintos proceden en paralelo.
// Dentro del lock solo hay aritmética local: el journal y las
// notificaciones ocurren fuera, sobre snapshots.
type marketEntry struct {
	mu         sync.Mutex
	market     domain.Market
	positions  []domain.Position
	resolution *domain.Resolution
}

// core es el estado compartido por Registry, Ledger y Resolver.
type core struct {
	cfg      Config
	clock    ports.Clock
	ids      ports.IDGenerator
	storage  ports.Storage  // puede ser nil (modo efímero)
	notifier ports.Notifier // puede ser nil

	mu      sync.RWMutex // protege el map; cada entry tiene su propio lock
	markets map[string]*marketEntry
}

func (c *core) entry(marketID string) (*marketEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.markets[marketID]
	return e, ok
}

// snapshotMarket copia un mercado, incluido su slice de resultados, para
// poder usarlo fuera del lock de la entry.
func snapshotMarket(m domain.Market) domain.Market {
	m.Outcomes = append([]string(nil), m.Outcomes...)
	return m
}

// snapshotPosition copia una posición con puntero PnL propio.
func snapshotPosition(p domain.Position) domain.Position {
	if p.PnL != nil {
		v := *p.PnL
		p.PnL = &v
	}
	return p
}

func snapshotPositions(ps []domain.Position) []domain.Position {
	out := make([]domain.Position, len(ps))
	for i, p := range ps {
		out[i] = snapshotPosition(p)
	}
	return out
}

// journal* escriben el estado ya aplicado en memoria. Los errores de
// storage se loguean y no revierten la operación: el engine es la fuente
// de verdad y el journal es best-effort.

func (c *core) journalMarket(ctx context.Context, m domain.Market) {
	if c.storage == nil {
		return
	}
	if err := c.storage.UpsertMarket(ctx, m); err != nil {
		slog.Warn("storage error", "op", "upsert_market", "market", m.ID, "err", err)
	}
}

func (c *core) journalPosition(ctx context.Context, p domain.Position) {
	if c.storage == nil {
		return
	}
	if err := c.storage.SavePosition(ctx, p); err != nil {
		slog.Warn("storage error", "op", "save_position", "position", p.ID, "err", err)
	}
}

func (c *core) journalResolution(ctx context.Context, r domain.Resolution) {
	if c.storage == nil {
		return
	}
	if err := c.storage.SaveResolution(ctx, r); err != nil {
		slog.Warn("storage error", "op", "save_resolution", "market", r.MarketID, "err", err)
	}
}

func (c *core) notifyCreated(ctx context.Context, m domain.Market) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.MarketCreated(ctx, m); err != nil {
		slog.Warn("notifier error", "event", "market_created", "market", m.ID, "err", err)
	}
}

func (c *core) notifySettled(ctx context.Context, m domain.Market, res *domain.Resolution, positions []domain.Position) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.MarketSettled(ctx, m, res, positions); err != nil {
		slog.Warn("notifier error", "event", "market_settled", "market", m.ID, "err", err)
	}
}

// Engine agrupa los tres componentes del core con su estado compartido.
type Engine struct {
	Registry *Registry
	Ledger   *Ledger
	Resolver *Resolver

	c *core
}

// New crea un Engine con todas las dependencias inyectadas. storage y
// notifier pueden ser nil.
func New(cfg Config, clock ports.Clock, ids ports.IDGenerator, storage ports.Storage, notifier ports.Notifier) *Engine {
	c := &core{
		cfg:      cfg,
		clock:    clock,
		ids:      ids,
		storage:  storage,
		notifier: notifier,
		markets:  make(map[string]*marketEntry),
	}
	return &Engine{
		Registry: &Registry{c: c},
		Ledger:   &Ledger{c: c},
		Resolver: &Resolver{c: c},
		c:        c,
	}
}

// Rehydrate reconstruye el estado en memoria desde el storage. Se llama
// una vez al arrancar, antes de aceptar operaciones.
func (e *Engine) Rehydrate(ctx context.Context) error {
	if e.c.storage == nil {
		return nil
	}

	markets, err := e.c.storage.LoadMarkets(ctx)
	if err != nil {
		return fmt.Errorf("engine.Rehydrate: load markets: %w", err)
	}
	positions, err := e.c.storage.LoadPositions(ctx)
	if err != nil {
		return fmt.Errorf("engine.Rehydrate: load positions: %w", err)
	}
	resolutions, err := e.c.storage.LoadResolutions(ctx)
	if err != nil {
		return fmt.Errorf("engine.Rehydrate: load resolutions: %w", err)
	}

	e.c.mu.Lock()
	defer e.c.mu.Unlock()

	for _, m := range markets {
		e.c.markets[m.ID] = &marketEntry{market: m}
	}
	for _, p := range positions {
		entry, ok := e.c.markets[p.MarketID]
		if !ok {
			slog.Warn("orphan position in storage", "position", p.ID, "market", p.MarketID)
			continue
		}
		entry.positions = append(entry.positions, p)
	}
	for _, r := range resolutions {
		entry, ok := e.c.markets[r.MarketID]
		if !ok {
			slog.Warn("orphan resolution in storage", "market", r.MarketID)
			continue
		}
		res := r
		entry.resolution = &res
	}

	slog.Info("engine rehydrated",
		"markets", len(markets),
		"positions", len(positions),
		"resolutions", len(resolutions),
	)
	return nil
}

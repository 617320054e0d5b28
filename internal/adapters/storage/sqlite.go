package storage

// sqlite.go — journal durable del engine.
//
// Tres tablas, una por tipo de registro:
//   - `markets`: upsert por mutación (creación, apuesta, resolución). Las
//     filas en estado terminal no se pisan y los acumuladores solo crecen,
//     así un journal rezagado no deshace una escritura más nueva.
//   - `positions`: upsert por id; el pnl se rellena en la liquidación y no
//     se reescribe una vez fijado.
//   - `resolutions`: una fila por mercado resuelto, nunca se reescribe.
// Los slices y payloads arbitrarios (outcomes, resolution data) van como
// JSON en columnas TEXT. El engine en memoria es la fuente de verdad; esto
// solo tiene que sobrevivir a un reinicio.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/marketd/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS markets (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    category        TEXT NOT NULL,
    outcome_type    TEXT NOT NULL,
    outcomes        TEXT NOT NULL, -- JSON array
    end_time        DATETIME NOT NULL,
    resolution_time DATETIME NOT NULL,
    status          TEXT NOT NULL,
    creator         TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL,
    total_volume    REAL    NOT NULL DEFAULT 0,
    participants    INTEGER NOT NULL DEFAULT 0,
    liquidity       REAL    NOT NULL DEFAULT 0,
    fees            REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS positions (
    id        TEXT PRIMARY KEY,
    market_id TEXT NOT NULL,
    outcome   TEXT NOT NULL,
    bettor    TEXT NOT NULL DEFAULT '',
    amount    REAL NOT NULL,
    price     REAL NOT NULL,
    pnl       REAL,          -- NULL hasta la liquidación
    placed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS resolutions (
    market_id       TEXT PRIMARY KEY,
    winning_outcome TEXT NOT NULL,
    data            TEXT, -- JSON
    resolved_at     DATETIME NOT NULL,
    source          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_markets_status  ON markets(status);
CREATE INDEX IF NOT EXISTS idx_markets_cat     ON markets(category);
CREATE INDEX IF NOT EXISTS idx_positions_mkt   ON positions(market_id);
CREATE INDEX IF NOT EXISTS idx_positions_owner ON positions(bettor);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// UpsertMarket escribe el estado completo del mercado. Los journals corren
// fuera del lock del mercado y pueden llegar desordenados: la fila no se
// toca una vez en estado terminal, y los acumuladores nunca decrecen.
func (s *SQLiteStorage) UpsertMarket(ctx context.Context, m domain.Market) error {
	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return fmt.Errorf("storage.UpsertMarket: marshal outcomes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO markets
			(id, title, description, category, outcome_type, outcomes,
			 end_time, resolution_time, status, creator, created_at,
			 total_volume, participants, liquidity, fees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status       = excluded.status,
			total_volume = max(markets.total_volume, excluded.total_volume),
			participants = max(markets.participants, excluded.participants),
			liquidity    = max(markets.liquidity, excluded.liquidity),
			fees         = max(markets.fees, excluded.fees)
		WHERE markets.status = 'active'
	`,
		m.ID, m.Title, m.Description, string(m.Category), string(m.OutcomeType),
		string(outcomes), m.EndTime.UTC(), m.ResolutionTime.UTC(), string(m.Status),
		m.Creator, m.CreatedAt.UTC(), m.TotalVolume, m.TotalParticipants,
		m.Liquidity, m.Fees,
	)
	if err != nil {
		return fmt.Errorf("storage.UpsertMarket: %s: %w", m.ID, err)
	}
	return nil
}

// SavePosition escribe una posición. Sobre una fila existente solo puede
// completar un pnl pendiente: un pnl ya fijado no se reescribe ni se borra,
// aunque llegue tarde un snapshot previo a la liquidación.
func (s *SQLiteStorage) SavePosition(ctx context.Context, p domain.Position) error {
	var pnl any
	if p.PnL != nil {
		pnl = *p.PnL
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (id, market_id, outcome, bettor, amount, price, pnl, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pnl = coalesce(positions.pnl, excluded.pnl)
	`, p.ID, p.MarketID, p.Outcome, p.Bettor, p.Amount, p.Price, pnl, p.PlacedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.SavePosition: %s: %w", p.ID, err)
	}
	return nil
}

// SaveResolution inserta el registro de resolución de un mercado.
func (s *SQLiteStorage) SaveResolution(ctx context.Context, r domain.Resolution) error {
	var data any
	if r.Data != nil {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("storage.SaveResolution: marshal data: %w", err)
		}
		data = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (market_id, winning_outcome, data, resolved_at, source)
		VALUES (?, ?, ?, ?, ?)
	`, r.MarketID, r.WinningOutcome, data, r.ResolvedAt.UTC(), r.Source)
	if err != nil {
		return fmt.Errorf("storage.SaveResolution: %s: %w", r.MarketID, err)
	}
	return nil
}

// LoadMarkets devuelve todos los mercados persistidos.
func (s *SQLiteStorage) LoadMarkets(ctx context.Context) ([]domain.Market, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, category, outcome_type, outcomes,
		       end_time, resolution_time, status, creator, created_at,
		       total_volume, participants, liquidity, fees
		FROM markets
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadMarkets: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Market
	for rows.Next() {
		var m domain.Market
		var category, outcomeType, status, outcomesJSON string
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Description, &category, &outcomeType, &outcomesJSON,
			&m.EndTime, &m.ResolutionTime, &status, &m.Creator, &m.CreatedAt,
			&m.TotalVolume, &m.TotalParticipants, &m.Liquidity, &m.Fees,
		); err != nil {
			return nil, fmt.Errorf("storage.LoadMarkets: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(outcomesJSON), &m.Outcomes); err != nil {
			return nil, fmt.Errorf("storage.LoadMarkets: outcomes of %s: %w", m.ID, err)
		}
		m.Category = domain.Category(category)
		m.OutcomeType = domain.OutcomeType(outcomeType)
		m.Status = domain.MarketStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadPositions devuelve todas las posiciones en orden de llegada.
func (s *SQLiteStorage) LoadPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, outcome, bettor, amount, price, pnl, placed_at
		FROM positions
		ORDER BY placed_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPositions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		var p domain.Position
		var pnl sql.NullFloat64
		if err := rows.Scan(
			&p.ID, &p.MarketID, &p.Outcome, &p.Bettor,
			&p.Amount, &p.Price, &pnl, &p.PlacedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.LoadPositions: scan: %w", err)
		}
		if pnl.Valid {
			v := pnl.Float64
			p.PnL = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadResolutions devuelve todos los registros de resolución.
func (s *SQLiteStorage) LoadResolutions(ctx context.Context) ([]domain.Resolution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, winning_outcome, data, resolved_at, source
		FROM resolutions
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadResolutions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Resolution
	for rows.Next() {
		var r domain.Resolution
		var data sql.NullString
		if err := rows.Scan(&r.MarketID, &r.WinningOutcome, &data, &r.ResolvedAt, &r.Source); err != nil {
			return nil, fmt.Errorf("storage.LoadResolutions: scan: %w", err)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &r.Data); err != nil {
				return nil, fmt.Errorf("storage.LoadResolutions: data of %s: %w", r.MarketID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

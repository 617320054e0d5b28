package ports

import (
	"context"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// Storage persiste el estado del engine como journal: cada mutación se
// escribe tras aplicarse en memoria, y al arrancar se rehidrata todo.
// El engine es la fuente de verdad; el storage es el colaborador durable.
// Las escrituras corren fuera de los locks del engine y pueden llegar
// desordenadas: cada implementación tiene que tolerar un snapshot rezagado
// sin deshacer uno más nuevo.
type Storage interface {
	UpsertMarket(ctx context.Context, m domain.Market) error
	SavePosition(ctx context.Context, p domain.Position) error
	SaveResolution(ctx context.Context, r domain.Resolution) error

	LoadMarkets(ctx context.Context) ([]domain.Market, error)
	LoadPositions(ctx context.Context) ([]domain.Position, error)
	LoadResolutions(ctx context.Context) ([]domain.Resolution, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

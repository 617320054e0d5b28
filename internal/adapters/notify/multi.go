package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/marketd/internal/domain"
	"github.com/alejandrodnm/marketd/internal/ports"
)

// Multi reparte cada evento a varios notificadores y junta sus errores.
type Multi []ports.Notifier

func (m Multi) MarketCreated(ctx context.Context, mkt domain.Market) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.MarketCreated(ctx, mkt))
	}
	return errors.Join(errs...)
}

func (m Multi) MarketSettled(ctx context.Context, mkt domain.Market, res *domain.Resolution, positions []domain.Position) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.MarketSettled(ctx, mkt, res, positions))
	}
	return errors.Join(errs...)
}

package workers

import (
	"context"
	"errors"
	"log/slog"

	"concord/contexts/governance-core/promotion-workflow/application/commands"
	"concord/contexts/governance-core/promotion-workflow/application/queries"
	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	"concord/internal/platform/metrics"
)

// Finalizer closes promotion votes whose deadline passed or whose eligible
// voters have all spoken. The use-case level compare-and-swap keeps a poller
// racing an HTTP finalize from doubling the promotion side effects.
type Finalizer struct {
	Promotions commands.PromotionUseCase
	Readiness  queries.ReadinessUseCase
	Metrics    *metrics.Registry
	BatchSize  int
	Logger     *slog.Logger
}

func (f Finalizer) RunOnce(ctx context.Context) error {
	batch := f.BatchSize
	if batch <= 0 {
		batch = 50
	}
	open, err := f.Readiness.ListByStatus(ctx, entities.StatusPendingVote, batch, 0)
	if err != nil {
		return err
	}

	for _, portfolio := range open {
		readiness, err := f.Readiness.CheckReady(ctx, portfolio.PortfolioID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrInvalidState) ||
				errors.Is(err, domainerrors.ErrPortfolioNotFound) {
				continue
			}
			return err
		}
		if !readiness.Ready {
			continue
		}

		if _, err := f.Promotions.Finalize(ctx, commands.FinalizeCommand{
			PortfolioID: portfolio.PortfolioID,
			Approved:    readiness.Approved,
		}); err != nil {
			if errors.Is(err, domainerrors.ErrInvalidState) {
				continue
			}
			return err
		}

		outcome := "rejected"
		if readiness.Approved {
			outcome = "promoted"
		}
		f.Metrics.CountFinalization("promotion", outcome)
		f.logger().Info("portfolio settled by poller",
			"event", "portfolio_poller_finalized",
			"module", "governance-core/promotion-workflow",
			"layer", "worker",
			"portfolio_id", portfolio.PortfolioID,
			"approved", readiness.Approved,
		)
	}
	return nil
}

func (f Finalizer) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

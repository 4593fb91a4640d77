package workers

import (
	"context"
	"errors"
	"log/slog"

	"concord/contexts/governance-core/nomination-workflow/application/commands"
	"concord/contexts/governance-core/nomination-workflow/application/queries"
	domainerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
	"concord/internal/platform/metrics"
)

// Finalizer polls pending nominations and settles the ones whose vote has
// reached quorum. Races with a manual finalize are benign: the loser observes
// ErrInvalidState and skips.
type Finalizer struct {
	Nominations commands.NominationUseCase
	Readiness   queries.ReadinessUseCase
	Metrics     *metrics.Registry
	BatchSize   int
	Logger      *slog.Logger
}

func (f Finalizer) RunOnce(ctx context.Context) error {
	batch := f.BatchSize
	if batch <= 0 {
		batch = 50
	}
	pending, err := f.Readiness.ListPending(ctx, false, batch, 0)
	if err != nil {
		return err
	}

	for _, nomination := range pending {
		readiness, err := f.Readiness.CheckReady(ctx, nomination.NominationID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNominationNotFound) {
				continue
			}
			return err
		}
		if !readiness.Ready {
			continue
		}

		if _, err := f.Nominations.Finalize(ctx, commands.FinalizeCommand{
			NominationID: nomination.NominationID,
			Approved:     readiness.Approved,
		}); err != nil {
			if errors.Is(err, domainerrors.ErrInvalidState) {
				continue
			}
			return err
		}

		outcome := "rejected"
		if readiness.Approved {
			outcome = "approved"
		}
		f.Metrics.CountFinalization("nomination", outcome)
		f.logger().Info("nomination settled by poller",
			"event", "nomination_poller_finalized",
			"module", "governance-core/nomination-workflow",
			"layer", "worker",
			"nomination_id", nomination.NominationID,
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

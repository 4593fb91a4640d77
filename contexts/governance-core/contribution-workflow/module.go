package contributionworkflow

import (
	"log/slog"
	"time"

	httpadapter "concord/contexts/governance-core/contribution-workflow/adapters/http"
	"concord/contexts/governance-core/contribution-workflow/adapters/memory"
	"concord/contexts/governance-core/contribution-workflow/application/commands"
	"concord/contexts/governance-core/contribution-workflow/application/queries"
	"concord/contexts/governance-core/contribution-workflow/ports"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo             ports.Repository
	Points           ports.PointsAwarder
	Names            ports.DisplayNameResolver
	Outbox           ports.OutboxWriter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	Locks            *ledgerapp.SubjectLocks
	UpvoteThreshold  int
	ApprovalPoints   int
	SubmissionWindow time.Duration
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Locks == nil {
		deps.Locks = ledgerapp.NewSubjectLocks()
	}
	useCase := commands.ContributionUseCase{
		Repo:             deps.Repo,
		Points:           deps.Points,
		Outbox:           deps.Outbox,
		Clock:            deps.Clock,
		IDGen:            deps.IDGen,
		Locks:            deps.Locks,
		UpvoteThreshold:  deps.UpvoteThreshold,
		ApprovalPoints:   deps.ApprovalPoints,
		SubmissionWindow: deps.SubmissionWindow,
		Logger:           deps.Logger,
	}
	listUseCase := queries.ListUseCase{
		Repo:             deps.Repo,
		Names:            deps.Names,
		Clock:            deps.Clock,
		SubmissionWindow: deps.SubmissionWindow,
	}
	return Module{
		Handler: httpadapter.Handler{
			Contributions: useCase,
			Lists:         listUseCase,
			Logger:        deps.Logger,
		},
	}
}

func NewInMemoryModule(points ports.PointsAwarder, names ports.DisplayNameResolver, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Points: points,
		Names:  names,
		Outbox: store,
		Clock:  memory.SystemClock{},
		IDGen:  memory.UUIDGenerator{},
		Logger: logger,
	})
	module.Store = store
	return module
}

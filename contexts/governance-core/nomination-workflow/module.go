package nominationworkflow

import (
	"log/slog"

	httpadapter "concord/contexts/governance-core/nomination-workflow/adapters/http"
	"concord/contexts/governance-core/nomination-workflow/adapters/memory"
	"concord/contexts/governance-core/nomination-workflow/application/commands"
	"concord/contexts/governance-core/nomination-workflow/application/queries"
	"concord/contexts/governance-core/nomination-workflow/ports"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
)

type Module struct {
	Handler     httpadapter.Handler
	Nominations commands.NominationUseCase
	Readiness   queries.ReadinessUseCase
	Store       *memory.Store
}

type Dependencies struct {
	Repo         ports.Repository
	Promotions   ports.PromotionFinalizer
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Locks        *ledgerapp.SubjectLocks
	Quorum       int
	ApprovalRate float64
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Locks == nil {
		deps.Locks = ledgerapp.NewSubjectLocks()
	}
	useCase := commands.NominationUseCase{
		Repo:       deps.Repo,
		Promotions: deps.Promotions,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Locks:      deps.Locks,
		Logger:     deps.Logger,
	}
	readiness := queries.ReadinessUseCase{
		Repo:         deps.Repo,
		Quorum:       deps.Quorum,
		ApprovalRate: deps.ApprovalRate,
	}
	return Module{
		Handler: httpadapter.Handler{
			Nominations: useCase,
			Readiness:   readiness,
			Logger:      deps.Logger,
		},
		Nominations: useCase,
		Readiness:   readiness,
	}
}

func NewInMemoryModule(promotions ports.PromotionFinalizer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:       store,
		Promotions: promotions,
		Outbox:     store,
		Clock:      memory.SystemClock{},
		IDGen:      memory.UUIDGenerator{},
		Logger:     logger,
	})
	module.Store = store
	return module
}

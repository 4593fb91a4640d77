package promotionworkflow

import (
	"log/slog"
	"time"

	httpadapter "concord/contexts/governance-core/promotion-workflow/adapters/http"
	"concord/contexts/governance-core/promotion-workflow/adapters/memory"
	"concord/contexts/governance-core/promotion-workflow/application/commands"
	"concord/contexts/governance-core/promotion-workflow/application/queries"
	"concord/contexts/governance-core/promotion-workflow/ports"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	"concord/internal/platform/notify"
)

type Module struct {
	Handler    httpadapter.Handler
	Promotions commands.PromotionUseCase
	Readiness  queries.ReadinessUseCase
	Store      *memory.Store
}

type Dependencies struct {
	Repo      ports.Repository
	Members   ports.RoleChanger
	Directory ports.VoterDirectory
	Notifier  notify.Notifier
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Locks     *ledgerapp.SubjectLocks

	VotingWindow     time.Duration
	ResubmitCooldown time.Duration
	ForbidSelfVote   bool
	PortfolioBaseURL string

	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Locks == nil {
		deps.Locks = ledgerapp.NewSubjectLocks()
	}
	useCase := commands.PromotionUseCase{
		Repo:             deps.Repo,
		Members:          deps.Members,
		Notifier:         deps.Notifier,
		Outbox:           deps.Outbox,
		Clock:            deps.Clock,
		IDGen:            deps.IDGen,
		Locks:            deps.Locks,
		VotingWindow:     deps.VotingWindow,
		ResubmitCooldown: deps.ResubmitCooldown,
		ForbidSelfVote:   deps.ForbidSelfVote,
		PortfolioBaseURL: deps.PortfolioBaseURL,
		Logger:           deps.Logger,
	}
	readiness := queries.ReadinessUseCase{
		Repo:             deps.Repo,
		Directory:        deps.Directory,
		Clock:            deps.Clock,
		ResubmitCooldown: deps.ResubmitCooldown,
	}
	return Module{
		Handler: httpadapter.Handler{
			Promotions: useCase,
			Readiness:  readiness,
			Logger:     deps.Logger,
		},
		Promotions: useCase,
		Readiness:  readiness,
	}
}

func NewInMemoryModule(members ports.RoleChanger, directory ports.VoterDirectory, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:      store,
		Members:   members,
		Directory: directory,
		Notifier:  notify.NewLogNotifier(logger),
		Outbox:    store,
		Clock:     memory.SystemClock{},
		IDGen:     memory.UUIDGenerator{},
		Logger:    logger,
	})
	module.Store = store
	return module
}

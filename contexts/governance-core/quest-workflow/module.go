package questworkflow

import (
	"log/slog"

	httpadapter "concord/contexts/governance-core/quest-workflow/adapters/http"
	"concord/contexts/governance-core/quest-workflow/adapters/memory"
	"concord/contexts/governance-core/quest-workflow/application/commands"
	"concord/contexts/governance-core/quest-workflow/application/queries"
	"concord/contexts/governance-core/quest-workflow/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo    ports.Repository
	Members ports.MemberDirectory
	Awards  ports.QuestCompleter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	useCase := commands.QuestUseCase{
		Repo:    deps.Repo,
		Members: deps.Members,
		Awards:  deps.Awards,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	lists := queries.ListUseCase{Repo: deps.Repo}
	return Module{
		Handler: httpadapter.Handler{
			Quests: useCase,
			Lists:  lists,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(members ports.MemberDirectory, awards ports.QuestCompleter, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:    store,
		Members: members,
		Awards:  awards,
		Clock:   memory.SystemClock{},
		IDGen:   memory.UUIDGenerator{},
		Logger:  logger,
	})
	module.Store = store
	return module
}

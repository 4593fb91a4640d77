package memberservice

import (
	"log/slog"

	httpadapter "concord/contexts/community-experience/member-service/adapters/http"
	"concord/contexts/community-experience/member-service/adapters/memory"
	"concord/contexts/community-experience/member-service/application"
	"concord/contexts/community-experience/member-service/ports"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Members: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Clock:  memory.SystemClock{},
		IDGen:  memory.UUIDGenerator{},
		Logger: logger,
	})
	module.Store = store
	return module
}

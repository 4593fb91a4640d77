package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	membersvc "concord/contexts/community-experience/member-service"
	memberpostgres "concord/contexts/community-experience/member-service/adapters/postgres"
	contributionworkflow "concord/contexts/governance-core/contribution-workflow"
	contributionpostgres "concord/contexts/governance-core/contribution-workflow/adapters/postgres"
	nominationworkflow "concord/contexts/governance-core/nomination-workflow"
	nominationpostgres "concord/contexts/governance-core/nomination-workflow/adapters/postgres"
	nominationworkers "concord/contexts/governance-core/nomination-workflow/application/workers"
	promotionworkflow "concord/contexts/governance-core/promotion-workflow"
	promotionpostgres "concord/contexts/governance-core/promotion-workflow/adapters/postgres"
	promotionworkers "concord/contexts/governance-core/promotion-workflow/application/workers"
	questworkflow "concord/contexts/governance-core/quest-workflow"
	questpostgres "concord/contexts/governance-core/quest-workflow/adapters/postgres"
	"concord/internal/platform/config"
	"concord/internal/platform/db"
	"concord/internal/platform/httpserver"
	"concord/internal/platform/messaging"
	"concord/internal/platform/metrics"
	"concord/internal/platform/notify"
	"concord/internal/shared/outbox"
)

// Package bootstrap is the composition root.
// Construction and cross-context wiring live here so module code stays
// framework-agnostic.

type APIApp struct {
	server *httpserver.Server
	store  *db.Store
	logger *slog.Logger
}

type WorkerApp struct {
	store        *db.Store
	nominations  nominationworkers.Finalizer
	promotions   promotionworkers.Finalizer
	outboxRelay  outbox.Relay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	store, err := db.Connect(cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := migrate(store); err != nil {
		return nil, err
	}

	registry := metrics.New()
	mods := buildModules(cfg, store, logger)

	server := httpserver.New(
		mods.members,
		mods.contributions,
		mods.nominations,
		mods.promotions,
		mods.quests,
		registry,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server: server,
		store:  store,
		logger: logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	store, err := db.Connect(cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := migrate(store); err != nil {
		return nil, err
	}

	registry := metrics.New()
	mods := buildModules(cfg, store, logger)

	return &WorkerApp{
		store: store,
		nominations: nominationworkers.Finalizer{
			Nominations: mods.nominations.Nominations,
			Readiness:   mods.nominations.Readiness,
			Metrics:     registry,
			Logger:      logger,
		},
		promotions: promotionworkers.Finalizer{
			Promotions: mods.promotions.Promotions,
			Readiness:  mods.promotions.Readiness,
			Metrics:    registry,
			Logger:     logger,
		},
		outboxRelay: outbox.Relay{
			Outbox:    outbox.NewStore(store.DB, logger),
			Publisher: messaging.NewBus(logger),
			Topic:     "governance.events",
			BatchSize: cfg.Worker.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.Worker.PollInterval,
		logger:       logger,
	}, nil
}

type modules struct {
	members       membersvc.Module
	contributions contributionworkflow.Module
	nominations   nominationworkflow.Module
	promotions    promotionworkflow.Module
	quests        questworkflow.Module
}

func buildModules(cfg config.Config, store *db.Store, logger *slog.Logger) modules {
	memberRepo := memberpostgres.NewRepository(store.DB, logger)
	members := membersvc.NewModule(membersvc.Dependencies{
		Repo:   memberRepo,
		Clock:  memberpostgres.SystemClock{},
		IDGen:  memberpostgres.UUIDGenerator{},
		Logger: logger,
	})

	contributionRepo := contributionpostgres.NewRepository(store.DB, logger)
	contributions := contributionworkflow.NewModule(contributionworkflow.Dependencies{
		Repo:             contributionRepo,
		Points:           pointsAwarder{members: members.Service},
		Names:            members.Service,
		Outbox:           contributionRepo,
		Clock:            contributionpostgres.SystemClock{},
		IDGen:            contributionpostgres.UUIDGenerator{},
		UpvoteThreshold:  cfg.Governance.ContributionUpvoteThreshold,
		ApprovalPoints:   cfg.Governance.ContributionApprovalPoints,
		SubmissionWindow: cfg.Governance.ContributionWindow,
		Logger:           logger,
	})

	promotionRepo := promotionpostgres.NewRepository(store.DB, logger)
	promotions := promotionworkflow.NewModule(promotionworkflow.Dependencies{
		Repo:             promotionRepo,
		Members:          roleChanger{members: members.Service},
		Directory:        members.Service,
		Notifier:         notify.NewLogNotifier(logger),
		Outbox:           promotionRepo,
		Clock:            promotionpostgres.SystemClock{},
		IDGen:            promotionpostgres.UUIDGenerator{},
		VotingWindow:     cfg.Governance.PromotionVotingWindow,
		ResubmitCooldown: cfg.Governance.PromotionResubmitCooldown,
		PortfolioBaseURL: cfg.PortfolioBaseURL,
		Logger:           logger,
	})

	nominationRepo := nominationpostgres.NewRepository(store.DB, logger)
	nominations := nominationworkflow.NewModule(nominationworkflow.Dependencies{
		Repo:         nominationRepo,
		Promotions:   promotionCascade{promotions: promotions.Promotions},
		Outbox:       nominationRepo,
		Clock:        nominationpostgres.SystemClock{},
		IDGen:        nominationpostgres.UUIDGenerator{},
		Quorum:       cfg.Governance.NominationQuorum,
		ApprovalRate: cfg.Governance.NominationApprovalRate,
		Logger:       logger,
	})

	questRepo := questpostgres.NewRepository(store.DB, logger)
	quests := questworkflow.NewModule(questworkflow.Dependencies{
		Repo:    questRepo,
		Members: guildDirectory{members: members.Service},
		Awards:  questCompleter{members: members.Service},
		Clock:   questpostgres.SystemClock{},
		IDGen:   questpostgres.UUIDGenerator{},
		Logger:  logger,
	})

	return modules{
		members:       members,
		contributions: contributions,
		nominations:   nominations,
		promotions:    promotions,
		quests:        quests,
	}
}

// migrate applies schema for every module. The shared outbox table appears in
// several model lists; AutoMigrate treats the repeats as no-ops.
func migrate(store *db.Store) error {
	var models []any
	models = append(models, memberpostgres.Models()...)
	models = append(models, contributionpostgres.Models()...)
	models = append(models, nominationpostgres.Models()...)
	models = append(models, promotionpostgres.Models()...)
	models = append(models, questpostgres.Models()...)
	return store.Migrate(models...)
}

func (a *APIApp) Run(_ context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	interval := w.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
	)

	for {
		if err := w.nominations.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.promotions.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.store != nil {
		return w.store.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

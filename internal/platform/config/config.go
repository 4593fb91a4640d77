package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Values load from an optional yaml file first, then environment variables
// override. Keep infra values here and pass typed sub-structs into builders.
type Config struct {
	ServiceName      string `yaml:"serviceName"      envconfig:"SERVICE_NAME"`
	HTTPPort         string `yaml:"httpPort"         envconfig:"HTTP_PORT"`
	PostgresDSN      string `yaml:"postgresDsn"      envconfig:"POSTGRES_DSN"`
	SQLitePath       string `yaml:"sqlitePath"       envconfig:"SQLITE_PATH"`
	PortfolioBaseURL string `yaml:"portfolioBaseUrl" envconfig:"PORTFOLIO_BASE_URL"`

	Governance Governance `yaml:"governance"`
	Worker     Worker     `yaml:"worker"`
}

// Governance carries every workflow tunable. Modules receive this struct at
// construction instead of reading module-level constants.
type Governance struct {
	ContributionUpvoteThreshold int           `yaml:"contributionUpvoteThreshold" envconfig:"CONTRIBUTION_UPVOTE_THRESHOLD"`
	ContributionApprovalPoints  int           `yaml:"contributionApprovalPoints"  envconfig:"CONTRIBUTION_APPROVAL_POINTS"`
	ContributionWindow          time.Duration `yaml:"contributionWindow"          envconfig:"CONTRIBUTION_WINDOW"`
	NominationQuorum            int           `yaml:"nominationQuorum"            envconfig:"NOMINATION_QUORUM"`
	NominationApprovalRate      float64       `yaml:"nominationApprovalRate"      envconfig:"NOMINATION_APPROVAL_RATE"`
	PromotionVotingWindow       time.Duration `yaml:"promotionVotingWindow"       envconfig:"PROMOTION_VOTING_WINDOW"`
	PromotionResubmitCooldown   time.Duration `yaml:"promotionResubmitCooldown"   envconfig:"PROMOTION_RESUBMIT_COOLDOWN"`
}

// Worker configures the poller/relay process.
type Worker struct {
	PollInterval    time.Duration `yaml:"pollInterval"    envconfig:"WORKER_POLL_INTERVAL"`
	OutboxBatchSize int           `yaml:"outboxBatchSize" envconfig:"WORKER_OUTBOX_BATCH_SIZE"`
}

// Load reads CONCORD_CONFIG (yaml, optional) and applies env overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONCORD_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Governance); err != nil {
		return Config{}, fmt.Errorf("process governance env config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Worker); err != nil {
		return Config{}, fmt.Errorf("process worker env config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ServiceName:      "concord",
		HTTPPort:         "8080",
		SQLitePath:       "concord.db",
		PortfolioBaseURL: "https://concord.example/portfolios",
		Governance: Governance{
			ContributionUpvoteThreshold: 3,
			ContributionApprovalPoints:  10,
			ContributionWindow:          24 * time.Hour,
			NominationQuorum:            5,
			NominationApprovalRate:      0.6,
			PromotionVotingWindow:       24 * time.Hour,
			PromotionResubmitCooldown:   7 * 24 * time.Hour,
		},
		Worker: Worker{
			PollInterval:    2 * time.Second,
			OutboxBatchSize: 100,
		},
	}
}

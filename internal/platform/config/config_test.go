package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.Governance.ContributionUpvoteThreshold != 3 {
		t.Fatalf("expected default threshold 3, got %d", cfg.Governance.ContributionUpvoteThreshold)
	}
	if cfg.Governance.PromotionResubmitCooldown != 7*24*time.Hour {
		t.Fatalf("expected 7 day cooldown, got %s", cfg.Governance.PromotionResubmitCooldown)
	}
	if cfg.Worker.PollInterval != 2*time.Second {
		t.Fatalf("expected 2s poll interval, got %s", cfg.Worker.PollInterval)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concord.yaml")
	raw := []byte("httpPort: \"9090\"\ngovernance:\n  nominationQuorum: 7\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("CONCORD_CONFIG", path)
	t.Setenv("NOMINATION_APPROVAL_RATE", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected file port override, got %s", cfg.HTTPPort)
	}
	if cfg.Governance.NominationQuorum != 7 {
		t.Fatalf("expected file quorum override, got %d", cfg.Governance.NominationQuorum)
	}
	// Environment wins over the file.
	if cfg.Governance.NominationApprovalRate != 0.75 {
		t.Fatalf("expected env approval rate override, got %v", cfg.Governance.NominationApprovalRate)
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	t.Setenv("CONCORD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

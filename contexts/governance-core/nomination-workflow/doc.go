// Package nominationworkflow implements peer-voted role-change proposals
// inside the governance-core context.
//
// Nominations never finalize themselves: an external poller asks CheckReady
// and calls Finalize with the computed outcome. Readiness requires the vote
// quorum, and approval requires the configured supermajority rate, which is
// deliberately stricter than the promotion workflow's simple majority.
package nominationworkflow

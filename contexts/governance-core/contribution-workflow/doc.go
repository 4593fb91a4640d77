// Package contributionworkflow implements crowd-approved content submission
// inside the governance-core context.
//
// Contributions start Pending and auto-approve when the upvote tally reaches
// the configured threshold, paying the author exactly once. Submission is
// gated by a rolling 24-hour window per author. Rejection is manual only and
// Featured is an independent flag on approved items, not a state.
package contributionworkflow

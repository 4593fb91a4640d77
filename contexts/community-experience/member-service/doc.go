// Package memberservice implements the member directory and point economy
// inside the community-experience context.
//
// Members are created on first interaction and never deleted. The module owns
// the running point balance (atomic increments shared by every awarding
// workflow), guild affiliation, promotion role changes, quest completion
// counters, and the leaderboard reads.
package memberservice

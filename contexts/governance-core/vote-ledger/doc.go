// Package voteledger implements the shared vote-ledger primitive inside the
// governance-core context.
//
// The ledger owns the one-live-vote-per-(subject, voter) invariant and the
// vote-switching rules every peer-voted workflow shares. Casting resolves
// against the voter's existing row and yields a tally delta the owning
// workflow applies to its cached counters inside the same critical section.
package voteledger

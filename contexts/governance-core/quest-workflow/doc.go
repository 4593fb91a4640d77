// Package questworkflow manages guild quests and their work submissions.
// Approved submissions award the quest's points and bump the member's
// completion counter through the member-service port.
package questworkflow

// Package promotionworkflow drives member promotion portfolios from draft
// through reviewer approval, a community vote with a fixed deadline, and a
// final role change applied on the member record. Rejected portfolios may be
// resubmitted after a cooldown.
package promotionworkflow

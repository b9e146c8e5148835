package model

import (
	"time"

	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

// MergeRequest is the persisted escalation state of one merge request ever
// seen by the minding loop. One row per platform-assigned MR ID.
//
// LastReminderTier holds the threshold (in hours) of the highest tier
// already handled, or TierNone if nothing has been sent for the current
// assignment. It never regresses except when LastAssignmentID changes:
// reassignment resets the ladder.
type MergeRequest struct {
	ID               types.MergeRequestID
	IID              int64  // per-project sequence number shown to humans
	Project          string // fully qualified "namespace/name"
	Assignee         string // display name of the current assignee
	AssigneeEmail    string // best-known contact address, may be empty
	LastReminderTier int64
	LastAssignmentID int64 // opaque assignment note ID, NoAssignmentEvent if unknown
	AssignedAt       time.Time
	LastUpdated      time.Time
}

// NoAssignmentEvent is the sentinel assignment-event ID recorded when no
// assignment note was found for the merge request (the creation time is used
// as the assignment time instead).
const NoAssignmentEvent int64 = -1

// EffectiveLastTier returns the previously-sent tier to compare against,
// treating the stored value as "none sent" when the assignment event has
// changed since the row was written.
func (x *MergeRequest) EffectiveLastTier(currentAssignmentID int64) int64 {
	if x == nil {
		return TierNone
	}
	if x.LastAssignmentID != currentAssignmentID {
		return TierNone
	}
	return x.LastReminderTier
}

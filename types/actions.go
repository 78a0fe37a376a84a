package types

// Action is a user-initiated lifecycle operation on an expense entry.
type Action string

const (
	ActionEdit           Action = "EDIT"
	ActionDelete         Action = "DELETE"
	ActionSubmit         Action = "SUBMIT"
	ActionApprove        Action = "APPROVE"
	ActionReject         Action = "REJECT"
	ActionComplete       Action = "COMPLETE"
	ActionMarkReimbursed Action = "MARK_REIMBURSED"
)

// transitionFor maps each status-changing action to its target status.
// Edit and delete are not transitions; they keep the current status.
var transitionFor = map[Action]EntryStatus{
	ActionSubmit:         EntryStatusPending,
	ActionApprove:        EntryStatusApproved,
	ActionReject:         EntryStatusRejected,
	ActionComplete:       EntryStatusCompleted,
	ActionMarkReimbursed: EntryStatusReimbursed,
}

// TargetStatus returns the status an entry of the given kind lands in when
// the action succeeds, and whether the action changes status at all.
// Kit-rental approval activates the rental rather than marking it approved.
func (a Action) TargetStatus(kind EntryKind) (EntryStatus, bool) {
	if a == ActionApprove && kind == EntryKindKitRental {
		return EntryStatusActive, true
	}
	target, ok := transitionFor[a]
	return target, ok
}

// RequiresApprover reports whether the action is reserved for project
// approvers. This gate is enforced both when advertising allowed actions
// and again before any request is dispatched.
func (a Action) RequiresApprover() bool {
	switch a {
	case ActionApprove, ActionReject, ActionComplete, ActionMarkReimbursed:
		return true
	default:
		return false
	}
}

// AllowedActions is the single exhaustive transition table consumed by both
// the HTTP layer (to advertise per-entry capabilities) and the service layer
// (to validate before dispatch). Status comparisons live here and nowhere
// else.
//
// isOwner refers to ownership of the specific entry, not the project.
func AllowedActions(kind EntryKind, status EntryStatus, role ProjectRole, isOwner bool) []Action {
	var actions []Action

	// Owner-only, pre-approval phase.
	if isOwner && status.IsEditable() {
		actions = append(actions, ActionEdit, ActionDelete)
	}
	if isOwner && status == EntryStatusDraft && status.IsValidTransition(kind, EntryStatusPending) {
		actions = append(actions, ActionSubmit)
	}

	if !role.CanApprove() {
		return actions
	}

	switch status {
	case EntryStatusPending:
		actions = append(actions, ActionApprove, ActionReject)
	case EntryStatusApproved:
		if kind == EntryKindMileage {
			actions = append(actions, ActionMarkReimbursed)
		}
	case EntryStatusActive:
		if kind == EntryKindKitRental {
			actions = append(actions, ActionComplete)
		}
	case EntryStatusCompleted:
		if kind == EntryKindKitRental {
			actions = append(actions, ActionMarkReimbursed)
		}
	}

	return actions
}

// CanPerform reports whether a single action is currently legal for the
// given entry state and caller context.
func CanPerform(action Action, kind EntryKind, status EntryStatus, role ProjectRole, isOwner bool) bool {
	for _, a := range AllowedActions(kind, status, role, isOwner) {
		if a == action {
			return true
		}
	}
	return false
}

// ApprovalAction is the payload shape for a single lifecycle request.
// It is never persisted; the reason only applies to rejections.
type ApprovalAction struct {
	EntryID string `json:"entryId"`
	Action  Action `json:"action"`
	Reason  string `json:"reason,omitempty"`
}

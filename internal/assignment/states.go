package assignment

import "github.com/fairgrid/stand-assignment/internal/model"

// Closed transition tables for both entities. Every mutation consults
// the table before writing; an absent edge means the transition fails
// with ErrInvalidState rather than silently persisting an inconsistent
// state.

// requestTransitions maps current request state to the set of states
// reachable from it. REJECTED, ASSIGNED and CANCELLED are terminal:
// they have no outgoing edges.
var requestTransitions = map[string]map[string]bool{
	model.RequestRequested: {
		model.RequestInReview:  true,
		model.RequestApproved:  true,
		model.RequestRejected:  true,
		model.RequestCancelled: true,
	},
	model.RequestInReview: {
		model.RequestApproved:  true,
		model.RequestRejected:  true,
		model.RequestCancelled: true,
	},
	model.RequestApproved: {
		model.RequestAssigned:  true,
		model.RequestCancelled: true,
	},
	model.RequestRejected:  {},
	model.RequestAssigned:  {},
	model.RequestCancelled: {},
}

// conflictTransitions maps current conflict state to reachable states.
// ESCALATED is not terminal: a reassignment moves the conflict back to
// IN_RESOLUTION. RESOLVED and CANCELLED are terminal.
var conflictTransitions = map[string]map[string]bool{
	model.ConflictDetected: {
		model.ConflictInReview:     true,
		model.ConflictInResolution: true,
		model.ConflictResolved:     true,
		model.ConflictEscalated:    true,
		model.ConflictCancelled:    true,
	},
	model.ConflictInReview: {
		model.ConflictInResolution: true,
		model.ConflictResolved:     true,
		model.ConflictEscalated:    true,
		model.ConflictCancelled:    true,
	},
	model.ConflictInResolution: {
		model.ConflictResolved:  true,
		model.ConflictEscalated: true,
		model.ConflictCancelled: true,
	},
	model.ConflictEscalated: {
		model.ConflictInResolution: true,
	},
	model.ConflictResolved:  {},
	model.ConflictCancelled: {},
}

// RequestTransitionAllowed reports whether a request may move from one
// state to another.
func RequestTransitionAllowed(from, to string) bool {
	return requestTransitions[from][to]
}

// ConflictTransitionAllowed reports whether a conflict may move from
// one state to another.
func ConflictTransitionAllowed(from, to string) bool {
	return conflictTransitions[from][to]
}

// RequestStateTerminal reports whether the request state has no
// outgoing transitions.
func RequestStateTerminal(state string) bool {
	edges, known := requestTransitions[state]
	return known && len(edges) == 0
}

// ConflictActive reports whether a conflict state still permits
// resolution work: DETECTED, IN_REVIEW or IN_RESOLUTION.
func ConflictActive(state string) bool {
	switch state {
	case model.ConflictDetected, model.ConflictInReview, model.ConflictInResolution:
		return true
	}
	return false
}

package assignment

import (
	"testing"

	"github.com/fairgrid/stand-assignment/internal/model"
)

func TestRequestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to string }{
		{model.RequestRequested, model.RequestInReview},
		{model.RequestRequested, model.RequestApproved},
		{model.RequestRequested, model.RequestRejected},
		{model.RequestRequested, model.RequestCancelled},
		{model.RequestInReview, model.RequestApproved},
		{model.RequestInReview, model.RequestRejected},
		{model.RequestInReview, model.RequestCancelled},
		{model.RequestApproved, model.RequestAssigned},
		{model.RequestApproved, model.RequestCancelled},
	}
	for _, tr := range allowed {
		if !RequestTransitionAllowed(tr.from, tr.to) {
			t.Errorf("%s -> %s should be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to string }{
		{model.RequestRequested, model.RequestAssigned}, // must be approved first
		{model.RequestInReview, model.RequestAssigned},
		{model.RequestApproved, model.RequestInReview}, // no going back
		{model.RequestRejected, model.RequestCancelled},
		{model.RequestRejected, model.RequestApproved},
		{model.RequestAssigned, model.RequestCancelled},
		{model.RequestCancelled, model.RequestRequested},
		{"BOGUS", model.RequestApproved},
		{model.RequestRequested, "BOGUS"},
	}
	for _, tr := range denied {
		if RequestTransitionAllowed(tr.from, tr.to) {
			t.Errorf("%s -> %s should be denied", tr.from, tr.to)
		}
	}
}

func TestRequestStateTerminal(t *testing.T) {
	for _, s := range []string{model.RequestRejected, model.RequestAssigned, model.RequestCancelled} {
		if !RequestStateTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []string{model.RequestRequested, model.RequestInReview, model.RequestApproved, "BOGUS"} {
		if RequestStateTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestConflictTransitionTable(t *testing.T) {
	allowed := []struct{ from, to string }{
		{model.ConflictDetected, model.ConflictInReview},
		{model.ConflictDetected, model.ConflictInResolution},
		{model.ConflictDetected, model.ConflictResolved},
		{model.ConflictDetected, model.ConflictEscalated},
		{model.ConflictDetected, model.ConflictCancelled},
		{model.ConflictInReview, model.ConflictInResolution},
		{model.ConflictInResolution, model.ConflictResolved},
		{model.ConflictInResolution, model.ConflictEscalated},
		{model.ConflictInResolution, model.ConflictCancelled},
		// Escalated conflicts re-enter resolution on reassignment.
		{model.ConflictEscalated, model.ConflictInResolution},
	}
	for _, tr := range allowed {
		if !ConflictTransitionAllowed(tr.from, tr.to) {
			t.Errorf("%s -> %s should be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to string }{
		{model.ConflictEscalated, model.ConflictResolved},
		{model.ConflictEscalated, model.ConflictCancelled},
		{model.ConflictResolved, model.ConflictInResolution},
		{model.ConflictResolved, model.ConflictCancelled},
		{model.ConflictCancelled, model.ConflictInResolution},
		{model.ConflictInResolution, model.ConflictDetected},
	}
	for _, tr := range denied {
		if ConflictTransitionAllowed(tr.from, tr.to) {
			t.Errorf("%s -> %s should be denied", tr.from, tr.to)
		}
	}
}

func TestConflictActive(t *testing.T) {
	for _, s := range []string{model.ConflictDetected, model.ConflictInReview, model.ConflictInResolution} {
		if !ConflictActive(s) {
			t.Errorf("%s should be active", s)
		}
	}
	for _, s := range []string{model.ConflictEscalated, model.ConflictResolved, model.ConflictCancelled, "BOGUS"} {
		if ConflictActive(s) {
			t.Errorf("%s should not be active", s)
		}
	}
}

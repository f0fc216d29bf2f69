package assignment

import (
	"context"
	"fmt"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// AvailabilityGate decides whether a booth may be claimed for an
// event: the booth must exist, be structurally active, be allocated to
// the event floor plan and carry the AVAILABLE disposition.
//
// The gate is a synchronous pre-check. Operations that flip the
// disposition (AssignBooth) repeat the check inside the same store
// transaction as the flip, so a passing gate never guarantees the
// later write will succeed under contention.
type AvailabilityGate struct {
	booths BoothDirectory
}

// NewAvailabilityGate returns a gate backed by the given directory.
func NewAvailabilityGate(booths BoothDirectory) *AvailabilityGate {
	return &AvailabilityGate{booths: booths}
}

// Check returns nil when the booth is usable for the event. It returns
// ErrNotFound when the booth does not exist and ErrBoothUnavailable
// when the booth is inactive, unallocated for the event or not in the
// AVAILABLE disposition.
func (g *AvailabilityGate) Check(ctx context.Context, eventID, boothID uint64) error {
	booth, err := g.booths.GetBooth(ctx, boothID)
	if err != nil {
		return err
	}
	if !booth.Active {
		return fmt.Errorf("booth %d is inactive: %w", boothID, ErrBoothUnavailable)
	}
	disp, err := g.booths.Disposition(ctx, eventID, boothID)
	if err != nil {
		return err
	}
	if disp != model.DispositionAvailable {
		return fmt.Errorf("booth %d is %s for event %d: %w", boothID, disp, eventID, ErrBoothUnavailable)
	}
	return nil
}

package model

import "time"

// Exhibitor approval states as stored in exhibitors.status.
const (
	ExhibitorPending   = "PENDING"
	ExhibitorApproved  = "APPROVED"
	ExhibitorSuspended = "SUSPENDED"
)

// Exhibitor is a company that may request stand space at an event.
// Only the attributes consumed by the priority scorer and by request
// validation are carried here; the full exhibitor profile (contacts,
// billing, category taxonomy) lives outside this service.
//
// Fields:
//  ID                 – primary key identifier.
//  Name               – display name, denormalized into conflict snapshots.
//  Status             – approval state (PENDING, APPROVED, SUSPENDED).
//  ParticipationCount – number of past events attended.
//  AvgRating          – average organizer rating, 0–5.
//  CreatedAt          – account creation timestamp, source of account age.
type Exhibitor struct {
	ID                 uint64    // exhibitors.id
	Name               string    // exhibitors.name
	Status             string    // exhibitors.status
	ParticipationCount int       // exhibitors.participation_count
	AvgRating          float64   // exhibitors.avg_rating
	CreatedAt          time.Time // exhibitors.created_at
}

// AccountAgeYears returns the number of whole years since the exhibitor
// account was created, evaluated against the supplied instant.
func (e Exhibitor) AccountAgeYears(now time.Time) int {
	years := 0
	anniversary := e.CreatedAt
	for {
		anniversary = anniversary.AddDate(1, 0, 0)
		if anniversary.After(now) {
			break
		}
		years++
	}
	return years
}

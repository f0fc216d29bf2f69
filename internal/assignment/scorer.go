package assignment

import (
	"time"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// ScoreConfig parameterizes the priority scorer. The default values
// mirror the established business weighting; they are configurable
// because the weighting has no documented rationale and organizers may
// want to tune it per deployment.
type ScoreConfig struct {
	PointsPerParticipation int     // points granted per prior event attended
	ParticipationCap       int     // ceiling of the participation contribution
	RatingMultiplier       float64 // avg rating (0–5) is multiplied by this
	RatingCap              int     // ceiling of the rating contribution
	PointsPerYear          int     // points granted per whole year of account age
	AgeCap                 int     // ceiling of the age contribution
	ApprovedBonus          int     // flat bonus for APPROVED exhibitors
}

// DefaultScoreConfig returns the standard weighting: 5/participation
// capped at 25, rating x10 capped at 50, 2/year capped at 20, +5 when
// approved, final score clamped to [0,100].
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		PointsPerParticipation: 5,
		ParticipationCap:       25,
		RatingMultiplier:       10,
		RatingCap:              50,
		PointsPerYear:          2,
		AgeCap:                 20,
		ApprovedBonus:          5,
	}
}

// Scorer computes exhibitor priority scores. It is a pure function of
// the exhibitor attributes and the evaluation instant; it has no side
// effects and is invoked exactly once, at request creation. Scores are
// never retroactively updated.
type Scorer struct {
	cfg ScoreConfig
	now func() time.Time
}

// NewScorer returns a Scorer using the provided weights. The clock
// defaults to time.Now and exists so tests can pin account age.
func NewScorer(cfg ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score returns the exhibitor's priority score in [0,100].
func (s *Scorer) Score(ex model.Exhibitor) int {
	score := 0

	part := ex.ParticipationCount * s.cfg.PointsPerParticipation
	if part > s.cfg.ParticipationCap {
		part = s.cfg.ParticipationCap
	}
	if part > 0 {
		score += part
	}

	rating := int(ex.AvgRating * s.cfg.RatingMultiplier)
	if rating > s.cfg.RatingCap {
		rating = s.cfg.RatingCap
	}
	if rating > 0 {
		score += rating
	}

	age := ex.AccountAgeYears(s.now().UTC()) * s.cfg.PointsPerYear
	if age > s.cfg.AgeCap {
		age = s.cfg.AgeCap
	}
	if age > 0 {
		score += age
	}

	if ex.Status == model.ExhibitorApproved {
		score += s.cfg.ApprovedBonus
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

package analytics

import (
	"RankPulse/internal/domain/models"
	"RankPulse/pkg/config"
)

// Tracker detects keywords crossing the top-N boundary between two
// observations, and position movements of keywords staying inside it.
type Tracker struct {
	topN int
}

// NewTracker builds a tracker from the analysis config section.
func NewTracker(cfg *config.Config) *Tracker {
	return &Tracker{topN: cfg.Analysis.TopN}
}

// TopN returns the configured boundary.
func (t *Tracker) TopN() int {
	return t.topN
}

// WithTopN returns a tracker using the given boundary, or the receiver when
// n is not a usable boundary. Requests may override the configured default.
func (t *Tracker) WithTopN(n int) *Tracker {
	if n <= 0 || n == t.topN {
		return t
	}
	return &Tracker{topN: n}
}

// Track compares a previous and current position for one keyword. A nil
// previous means first observation, which never produces an event; there is
// no boundary to have crossed. An unranked position counts as outside the
// top N.
func (t *Tracker) Track(keyword string, previous *int, current int) *models.TransitionEvent {
	if previous == nil {
		return nil
	}

	wasIn := inTopN(*previous, t.topN)
	isIn := inTopN(current, t.topN)
	if wasIn == isIn {
		return nil
	}

	direction := models.EnteredTopN
	if wasIn {
		direction = models.ExitedTopN
	}
	return &models.TransitionEvent{
		Keyword:          keyword,
		Direction:        direction,
		PreviousPosition: previous,
		CurrentPosition:  current,
	}
}

// Movement reports a position change for a keyword that stayed inside the
// top N across both observations. Returns nil for boundary crossings (those
// are transitions), unchanged positions, and first observations.
func (t *Tracker) Movement(keyword string, previous *int, current int) *models.Movement {
	if previous == nil || *previous == current {
		return nil
	}
	if !inTopN(*previous, t.topN) || !inTopN(current, t.topN) {
		return nil
	}

	change := *previous - current
	changeType := models.ChangeImprovement
	if change < 0 {
		changeType = models.ChangeDecline
	}
	return &models.Movement{
		Keyword:          keyword,
		PreviousPosition: *previous,
		CurrentPosition:  current,
		Change:           change,
		ChangeType:       changeType,
	}
}

// inTopN treats position as inside the boundary only when it is an actual
// rank in [1, n]. The not-found sentinel is outside.
func inTopN(position, n int) bool {
	return position != models.PositionNotFound && position <= n
}

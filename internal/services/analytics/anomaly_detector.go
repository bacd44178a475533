package analytics

import (
	"math"

	"RankPulse/internal/domain/models"
	"RankPulse/pkg/config"
)

// Detector flags ranking positions that deviate statistically from a
// keyword's own history. Thresholds come from config so tuning them does not
// need a rebuild.
type Detector struct {
	minHistory int
	zMedium    float64
	zHigh      float64
}

// NewDetector builds a detector from the analysis config section.
func NewDetector(cfg *config.Config) *Detector {
	return &Detector{
		minHistory: cfg.Analysis.MinHistoryPoints,
		zMedium:    cfg.Analysis.ZScoreMedium,
		zHigh:      cfg.Analysis.ZScoreHigh,
	}
}

// Detect compares the current position against the keyword's history and
// returns an anomaly when the z-score crosses the medium threshold, or nil.
//
// Detection is skipped entirely when the history is too short to carry a
// meaningful distribution, when the standard deviation is zero (a perfectly
// stable keyword moving at all is not a statistical statement), or when the
// current observation has no position.
func (d *Detector) Detect(history []models.HistoryPoint, current models.RankingRecord) *models.Anomaly {
	if len(history) < d.minHistory || !current.Ranked() {
		return nil
	}

	mean, stddev := positionStats(history)
	if stddev == 0 {
		return nil
	}

	z := (float64(current.Position) - mean) / stddev
	abs := math.Abs(z)
	if abs < d.zMedium {
		return nil
	}

	severity := models.SeverityMedium
	if abs >= d.zHigh {
		severity = models.SeverityHigh
	}

	// Larger position numbers mean worse rank, so a positive z-score is a
	// decline.
	change := models.ChangeImprovement
	if z > 0 {
		change = models.ChangeDecline
	}

	return &models.Anomaly{
		Keyword:          current.Keyword,
		CurrentPosition:  current.Position,
		ExpectedPosition: round2(mean),
		ZScore:           round2(z),
		Severity:         severity,
		ChangeType:       change,
	}
}

// positionStats computes the mean and population standard deviation of the
// historical positions. Every point counts, duplicates included.
func positionStats(history []models.HistoryPoint) (mean, stddev float64) {
	n := float64(len(history))

	var sum float64
	for _, p := range history {
		sum += float64(p.Position)
	}
	mean = sum / n

	var sq float64
	for _, p := range history {
		diff := float64(p.Position) - mean
		sq += diff * diff
	}
	return mean, math.Sqrt(sq / n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

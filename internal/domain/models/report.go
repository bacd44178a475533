package models

import "time"

// SectionStatus tells the caller apart "no data" from "not requested".
type SectionStatus string

const (
	SectionOK         SectionStatus = "ok"
	SectionSkipped    SectionStatus = "not_requested"
	SectionFailed     SectionStatus = "failed"
	SectionDegraded   SectionStatus = "degraded"
)

// RankingsSection holds the domain's own keyword positions.
type RankingsSection struct {
	Status  SectionStatus            `json:"status"`
	Error   string                   `json:"error,omitempty"`
	Records map[string]RankingRecord `json:"records,omitempty"` // keyword -> record
}

// CompetitorRankingsSection holds competitor positions per keyword.
type CompetitorRankingsSection struct {
	Status  SectionStatus                       `json:"status"`
	Error   string                              `json:"error,omitempty"`
	Records map[string]map[string]RankingRecord `json:"records,omitempty"` // keyword -> competitor -> record
}

// MetricsSection holds keyword volume/difficulty metrics.
type MetricsSection struct {
	Status  SectionStatus             `json:"status"`
	Error   string                    `json:"error,omitempty"`
	Metrics map[string]KeywordMetrics `json:"metrics,omitempty"` // keyword -> metrics
}

// CompetitorSummarySection holds discovered or supplied competitor stats.
type CompetitorSummarySection struct {
	Status         SectionStatus       `json:"status"`
	Error          string              `json:"error,omitempty"`
	AutoDiscovered bool                `json:"auto_discovered"`
	Competitors    []CompetitorSummary `json:"competitors,omitempty"`
}

// BacklinksSection holds the backlink overview.
type BacklinksSection struct {
	Status   SectionStatus     `json:"status"`
	Error    string            `json:"error,omitempty"`
	Overview *BacklinkOverview `json:"overview,omitempty"`
}

// EnrichedReport is the assembled output of one fetch cycle. Missing or
// failed sections stay present with an explicit status; the caller owns
// persistence and delivery.
type EnrichedReport struct {
	ReportID    string    `json:"report_id"`
	Domain      string    `json:"domain"`
	Market      string    `json:"market"`
	GeneratedAt time.Time `json:"generated_at"`

	Rankings           RankingsSection           `json:"rankings"`
	CompetitorRankings CompetitorRankingsSection `json:"competitor_rankings"`
	Metrics            MetricsSection            `json:"keyword_metrics"`
	CompetitorSummary  CompetitorSummarySection  `json:"competitor_summary"`
	Backlinks          BacklinksSection          `json:"backlinks"`

	Anomalies   []Anomaly         `json:"anomalies"`
	Transitions []TransitionEvent `json:"transitions"`
	Movements   []Movement        `json:"movements"`
}

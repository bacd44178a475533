package repository

import (
	"context"

	"RankPulse/internal/domain/models"
)

// RankingProvider is the external ranking-data source. Implementations wrap
// a network API whose SERP queries run as asynchronous jobs (submit, poll,
// result) under a requests-per-second ceiling.
type RankingProvider interface {
	// KeywordRankings resolves the query domain's position for every keyword.
	KeywordRankings(ctx context.Context, q models.RankingQuery) (map[string]models.RankingRecord, error)
	// CompetitorRankings resolves each competitor's position per keyword.
	CompetitorRankings(ctx context.Context, q models.RankingQuery) (map[string]map[string]models.RankingRecord, error)
	// KeywordMetrics fetches volume/difficulty data for the keywords.
	KeywordMetrics(ctx context.Context, keywords []string, market string) (map[string]models.KeywordMetrics, error)
	// CompetitorSummary returns stats for the given competitors, discovering
	// them when the list is empty.
	CompetitorSummary(ctx context.Context, domain, market string, competitors []string) ([]models.CompetitorSummary, bool, error)
	// BacklinkOverview summarizes the domain's backlink profile.
	BacklinkOverview(ctx context.Context, domain string) (*models.BacklinkOverview, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordProviderRequest(endpoint, status string, seconds float64)
	RecordRateLimitWait(seconds float64)
	RecordCacheHit(queryType string)
	RecordCacheMiss(queryType string)
	RecordAnomaly(severity, changeType string)
	RecordTransition(direction string)
	RecordBatchDuration(seconds float64)
	RecordQueryFailure(queryType, reason string)
}

// ReportPublisher hands an assembled report to the downstream
// reporting/AI-summarization step.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *models.EnrichedReport) error
	Close() error
}

// NopMetrics discards all measurements; used when metrics are disabled and
// in tests.
type NopMetrics struct{}

func (NopMetrics) RecordProviderRequest(string, string, float64) {}
func (NopMetrics) RecordRateLimitWait(float64)                   {}
func (NopMetrics) RecordCacheHit(string)                         {}
func (NopMetrics) RecordCacheMiss(string)                        {}
func (NopMetrics) RecordAnomaly(string, string)                  {}
func (NopMetrics) RecordTransition(string)                       {}
func (NopMetrics) RecordBatchDuration(float64)                   {}
func (NopMetrics) RecordQueryFailure(string, string)             {}

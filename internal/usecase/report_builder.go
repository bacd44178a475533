package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	"RankPulse/internal/services/analytics"
	xlogger "RankPulse/pkg/logger"
)

// Query IDs inside one report batch.
const (
	queryIDRankings           = "rankings"
	queryIDCompetitorRankings = "competitor_rankings"
	queryIDKeywordMetrics     = "keyword_metrics"
	queryIDCompetitorSummary  = "competitor_summary"
	queryIDBacklinks          = "backlinks"
)

// ReportBuilder assembles fetch results, caller-supplied history, and the
// analytics passes into one report. Assembly is pure merging; every network
// effect happens before it in the orchestrator.
type ReportBuilder struct {
	detector *analytics.Detector
	tracker  *analytics.Tracker
	logger   *xlogger.Logger
	metrics  repository.Metrics
}

// NewReportBuilder wires the builder.
func NewReportBuilder(detector *analytics.Detector, tracker *analytics.Tracker, l *xlogger.Logger, m repository.Metrics) *ReportBuilder {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &ReportBuilder{detector: detector, tracker: tracker, logger: l, metrics: m}
}

// Queries translates a report request into the provider query batch.
func (b *ReportBuilder) Queries(req *models.ReportRequest) []ProviderQuery {
	base := models.RankingQuery{
		Keywords:    req.Keywords,
		Domain:      req.Domain,
		Market:      req.Market,
		Competitors: req.Competitors,
	}

	var queries []ProviderQuery
	for _, section := range req.RequestedSections() {
		queries = append(queries, ProviderQuery{
			ID:    string(section),
			Type:  section,
			Query: base,
		})
	}
	return queries
}

// Assemble merges query results into a report. Failed or skipped sections
// stay present with an explicit status; a report always comes back even when
// every query failed.
func (b *ReportBuilder) Assemble(req *models.ReportRequest, results map[string]QueryResult) *models.EnrichedReport {
	report := &models.EnrichedReport{
		ReportID:    uuid.NewString(),
		Domain:      req.Domain,
		Market:      req.Market,
		GeneratedAt: time.Now().UTC(),

		Rankings:           models.RankingsSection{Status: models.SectionSkipped},
		CompetitorRankings: models.CompetitorRankingsSection{Status: models.SectionSkipped},
		Metrics:            models.MetricsSection{Status: models.SectionSkipped},
		CompetitorSummary:  models.CompetitorSummarySection{Status: models.SectionSkipped},
		Backlinks:          models.BacklinksSection{Status: models.SectionSkipped},

		Anomalies:   []models.Anomaly{},
		Transitions: []models.TransitionEvent{},
		Movements:   []models.Movement{},
	}

	if res, ok := results[queryIDRankings]; ok {
		if res.Err != nil {
			report.Rankings = models.RankingsSection{Status: models.SectionFailed, Error: res.Err.Error()}
		} else if records, ok := res.Data.(map[string]models.RankingRecord); ok {
			report.Rankings = models.RankingsSection{Status: models.SectionOK, Records: records}
		} else {
			report.Rankings = models.RankingsSection{Status: models.SectionFailed, Error: "unexpected payload shape"}
		}
	}

	if res, ok := results[queryIDCompetitorRankings]; ok {
		if res.Err != nil {
			report.CompetitorRankings = models.CompetitorRankingsSection{Status: models.SectionFailed, Error: res.Err.Error()}
		} else if records, ok := res.Data.(map[string]map[string]models.RankingRecord); ok {
			report.CompetitorRankings = models.CompetitorRankingsSection{Status: models.SectionOK, Records: records}
		} else {
			report.CompetitorRankings = models.CompetitorRankingsSection{Status: models.SectionFailed, Error: "unexpected payload shape"}
		}
	}

	if res, ok := results[queryIDKeywordMetrics]; ok {
		if res.Err != nil {
			report.Metrics = models.MetricsSection{Status: models.SectionFailed, Error: res.Err.Error()}
		} else if metrics, ok := res.Data.(map[string]models.KeywordMetrics); ok {
			report.Metrics = models.MetricsSection{Status: models.SectionOK, Metrics: metrics}
			enrichRankings(report.Rankings.Records, metrics)
		} else {
			report.Metrics = models.MetricsSection{Status: models.SectionFailed, Error: "unexpected payload shape"}
		}
	}

	if res, ok := results[queryIDCompetitorSummary]; ok {
		if res.Err != nil {
			report.CompetitorSummary = models.CompetitorSummarySection{Status: models.SectionFailed, Error: res.Err.Error()}
		} else if payload, ok := res.Data.(competitorSummaryPayload); ok {
			report.CompetitorSummary = models.CompetitorSummarySection{
				Status:         models.SectionOK,
				AutoDiscovered: payload.AutoDiscovered,
				Competitors:    payload.Competitors,
			}
		} else {
			report.CompetitorSummary = models.CompetitorSummarySection{Status: models.SectionFailed, Error: "unexpected payload shape"}
		}
	}

	if res, ok := results[queryIDBacklinks]; ok {
		if res.Err != nil {
			report.Backlinks = models.BacklinksSection{Status: models.SectionFailed, Error: res.Err.Error()}
		} else if overview, ok := res.Data.(*models.BacklinkOverview); ok {
			report.Backlinks = models.BacklinksSection{Status: models.SectionOK, Overview: overview}
		} else {
			report.Backlinks = models.BacklinksSection{Status: models.SectionFailed, Error: "unexpected payload shape"}
		}
	}

	if report.Rankings.Status == models.SectionOK {
		b.analyze(req, report)
	}

	return report
}

// analyze runs the anomaly, transition, and movement passes over the fetched
// rankings against the caller-supplied history.
func (b *ReportBuilder) analyze(req *models.ReportRequest, report *models.EnrichedReport) {
	byKeyword := groupHistory(req.HistoricalData)
	tracker := b.tracker.WithTopN(req.TopN)

	for _, keyword := range sortedKeys(report.Rankings.Records) {
		record := report.Rankings.Records[keyword]
		history := byKeyword[keyword]

		if anomaly := b.detector.Detect(history, record); anomaly != nil {
			report.Anomalies = append(report.Anomalies, *anomaly)
			b.metrics.RecordAnomaly(string(anomaly.Severity), string(anomaly.ChangeType))
		}

		previous := lastPosition(history)
		if ev := tracker.Track(keyword, previous, record.Position); ev != nil {
			report.Transitions = append(report.Transitions, *ev)
			b.metrics.RecordTransition(string(ev.Direction))
		}
		if mv := tracker.Movement(keyword, previous, record.Position); mv != nil {
			report.Movements = append(report.Movements, *mv)
		}
	}

	// Most significant deviations first.
	sort.SliceStable(report.Anomalies, func(i, j int) bool {
		return math.Abs(report.Anomalies[i].ZScore) > math.Abs(report.Anomalies[j].ZScore)
	})

	b.logger.Info("report analysis complete",
		xlogger.String("domain", report.Domain),
		xlogger.Int("anomalies", len(report.Anomalies)),
		xlogger.Int("transitions", len(report.Transitions)),
		xlogger.Int("movements", len(report.Movements)),
	)
}

// enrichRankings copies volume and difficulty onto the ranking records so a
// consumer reading only the rankings section still sees them.
func enrichRankings(records map[string]models.RankingRecord, metrics map[string]models.KeywordMetrics) {
	for keyword, record := range records {
		m, ok := metrics[keyword]
		if !ok {
			continue
		}
		record.SearchVolume = m.SearchVolume
		record.CPC = m.CPC
		record.Difficulty = m.Difficulty
		records[keyword] = record
	}
}

// groupHistory splits the flat history list per keyword, preserving the
// caller's chronological order.
func groupHistory(points []models.HistoryPoint) map[string][]models.HistoryPoint {
	grouped := make(map[string][]models.HistoryPoint)
	for _, p := range points {
		grouped[p.Keyword] = append(grouped[p.Keyword], p)
	}
	return grouped
}

// lastPosition returns the most recent prior position, or nil when the
// keyword has never been observed.
func lastPosition(history []models.HistoryPoint) *int {
	if len(history) == 0 {
		return nil
	}
	pos := history[len(history)-1].Position
	return &pos
}

func sortedKeys(m map[string]models.RankingRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

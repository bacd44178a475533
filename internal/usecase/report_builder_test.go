package usecase

import (
	"errors"
	"testing"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	"RankPulse/internal/services/analytics"
	"RankPulse/pkg/config"
	xlogger "RankPulse/pkg/logger"
)

func newTestBuilder() *ReportBuilder {
	cfg := &config.Config{}
	cfg.Analysis.TopN = 10
	cfg.Analysis.MinHistoryPoints = 7
	cfg.Analysis.ZScoreMedium = 2.0
	cfg.Analysis.ZScoreHigh = 3.0
	return NewReportBuilder(
		analytics.NewDetector(cfg),
		analytics.NewTracker(cfg),
		xlogger.Nop(),
		repository.NopMetrics{},
	)
}

func historyFor(keyword string, positions ...int) []models.HistoryPoint {
	points := make([]models.HistoryPoint, 0, len(positions))
	for _, p := range positions {
		points = append(points, models.HistoryPoint{Keyword: keyword, Position: p})
	}
	return points
}

func TestQueriesDefaultSections(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{Domain: "acme.io", Keywords: []string{"kw"}}

	queries := b.Queries(req)
	if len(queries) != 4 {
		t.Fatalf("got %d queries, want 4 defaults", len(queries))
	}
	for _, q := range queries {
		if q.Type == models.QueryBacklinks {
			t.Error("backlinks must be opt-in")
		}
	}
}

func TestQueriesExplicitSections(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{
		Domain:   "acme.io",
		Keywords: []string{"kw"},
		Sections: []string{"rankings", "backlinks"},
	}

	queries := b.Queries(req)
	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(queries))
	}
	if queries[1].Type != models.QueryBacklinks {
		t.Errorf("second query = %s", queries[1].Type)
	}
}

func TestAssembleMergesSections(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{Domain: "acme.io", Market: "us", Keywords: []string{"kw"}}

	results := map[string]QueryResult{
		queryIDRankings: {
			Type: models.QueryRankings,
			Data: map[string]models.RankingRecord{
				"kw": {Keyword: "kw", Domain: "acme.io", Position: 4},
			},
		},
		queryIDKeywordMetrics: {
			Type: models.QueryKeywordMetrics,
			Data: map[string]models.KeywordMetrics{
				"kw": {Keyword: "kw", SearchVolume: 900, Difficulty: 40},
			},
		},
	}

	report := b.Assemble(req, results)
	if report.ReportID == "" {
		t.Error("missing report ID")
	}
	if report.Rankings.Status != models.SectionOK {
		t.Errorf("rankings status = %s", report.Rankings.Status)
	}
	if report.Metrics.Status != models.SectionOK {
		t.Errorf("metrics status = %s", report.Metrics.Status)
	}
	if report.CompetitorSummary.Status != models.SectionSkipped {
		t.Errorf("unrequested section status = %s, want not_requested", report.CompetitorSummary.Status)
	}
	if got := report.Rankings.Records["kw"].SearchVolume; got != 900 {
		t.Errorf("rankings not enriched with metrics, volume = %d", got)
	}
}

func TestAssembleFailedSection(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{Domain: "acme.io", Keywords: []string{"kw"}}

	results := map[string]QueryResult{
		queryIDRankings: {Type: models.QueryRankings, Err: errors.New("rate limit retries exhausted")},
		queryIDKeywordMetrics: {
			Type: models.QueryKeywordMetrics,
			Data: map[string]models.KeywordMetrics{"kw": {Keyword: "kw"}},
		},
	}

	report := b.Assemble(req, results)
	if report.Rankings.Status != models.SectionFailed {
		t.Errorf("rankings status = %s, want failed", report.Rankings.Status)
	}
	if report.Rankings.Error == "" {
		t.Error("failed section must carry its error")
	}
	if report.Metrics.Status != models.SectionOK {
		t.Errorf("partial success lost: metrics status = %s", report.Metrics.Status)
	}
	if len(report.Anomalies) != 0 {
		t.Error("no analysis without rankings")
	}
}

func TestAssembleRunsAnalytics(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{
		Domain:   "acme.io",
		Keywords: []string{"falling", "rising"},
		HistoricalData: append(
			historyFor("falling", 20, 22, 21, 23, 20, 21, 22),
			historyFor("rising", 15, 14, 16, 15, 14, 15, 15)...,
		),
	}

	results := map[string]QueryResult{
		queryIDRankings: {
			Type: models.QueryRankings,
			Data: map[string]models.RankingRecord{
				"falling": {Keyword: "falling", Domain: "acme.io", Position: 35},
				"rising":  {Keyword: "rising", Domain: "acme.io", Position: 8},
			},
		},
	}

	report := b.Assemble(req, results)

	if len(report.Anomalies) != 2 {
		t.Fatalf("got %d anomalies, want 2", len(report.Anomalies))
	}
	// sorted by |z| descending; the collapse to 35 dwarfs the rise to 8
	if report.Anomalies[0].Keyword != "falling" {
		t.Errorf("anomalies not sorted by magnitude: %+v", report.Anomalies)
	}
	if report.Anomalies[0].Severity != models.SeverityHigh || report.Anomalies[0].ChangeType != models.ChangeDecline {
		t.Errorf("falling anomaly = %+v", report.Anomalies[0])
	}

	if len(report.Transitions) != 1 {
		t.Fatalf("got %d transitions, want 1", len(report.Transitions))
	}
	ev := report.Transitions[0]
	if ev.Keyword != "rising" || ev.Direction != models.EnteredTopN {
		t.Errorf("transition = %+v", ev)
	}
	if ev.PreviousPosition == nil || *ev.PreviousPosition != 15 {
		t.Errorf("transition previous = %v", ev.PreviousPosition)
	}
}

func TestAssembleFirstObservationNoTransition(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{Domain: "acme.io", Keywords: []string{"new"}}

	results := map[string]QueryResult{
		queryIDRankings: {
			Type: models.QueryRankings,
			Data: map[string]models.RankingRecord{
				"new": {Keyword: "new", Domain: "acme.io", Position: 3},
			},
		},
	}

	report := b.Assemble(req, results)
	if len(report.Transitions) != 0 {
		t.Errorf("first observation produced transitions: %+v", report.Transitions)
	}
	if len(report.Anomalies) != 0 {
		t.Errorf("no history, no anomalies: %+v", report.Anomalies)
	}
}

func TestAssembleMovementsWithinTopN(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{
		Domain:         "acme.io",
		Keywords:       []string{"kw"},
		HistoricalData: historyFor("kw", 7),
	}

	results := map[string]QueryResult{
		queryIDRankings: {
			Type: models.QueryRankings,
			Data: map[string]models.RankingRecord{
				"kw": {Keyword: "kw", Domain: "acme.io", Position: 3},
			},
		},
	}

	report := b.Assemble(req, results)
	if len(report.Movements) != 1 {
		t.Fatalf("got %d movements, want 1", len(report.Movements))
	}
	m := report.Movements[0]
	if m.Change != 4 || m.ChangeType != models.ChangeImprovement {
		t.Errorf("movement = %+v", m)
	}
}

func TestAssembleRespectsRequestTopN(t *testing.T) {
	b := newTestBuilder()
	req := &models.ReportRequest{
		Domain:         "acme.io",
		Keywords:       []string{"kw"},
		TopN:           3,
		HistoricalData: historyFor("kw", 5),
	}

	results := map[string]QueryResult{
		queryIDRankings: {
			Type: models.QueryRankings,
			Data: map[string]models.RankingRecord{
				"kw": {Keyword: "kw", Domain: "acme.io", Position: 2},
			},
		},
	}

	report := b.Assemble(req, results)
	if len(report.Transitions) != 1 {
		t.Fatalf("got %d transitions, want 1 with top_n=3", len(report.Transitions))
	}
	if report.Transitions[0].Direction != models.EnteredTopN {
		t.Errorf("direction = %s", report.Transitions[0].Direction)
	}
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	svccache "RankPulse/internal/service/cache"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/config"
	xlogger "RankPulse/pkg/logger"
)

// stubProvider answers canned data per query type and counts calls.
type stubProvider struct {
	mu    sync.Mutex
	calls map[string]int

	rankingsErr error
	rankings    map[string]models.RankingRecord
	metrics     map[string]models.KeywordMetrics
	summaries   []models.CompetitorSummary
	discovered  bool
	backlinks   *models.BacklinkOverview
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		calls: map[string]int{},
		rankings: map[string]models.RankingRecord{
			"kw": {Keyword: "kw", Domain: "acme.io", Position: 4},
		},
		metrics: map[string]models.KeywordMetrics{
			"kw": {Keyword: "kw", SearchVolume: 900},
		},
		summaries:  []models.CompetitorSummary{{Domain: "rival.com", CommonKeywords: 12}},
		discovered: true,
		backlinks:  &models.BacklinkOverview{Domain: "acme.io", TotalBacklinks: 5000},
	}
}

func (s *stubProvider) count(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *stubProvider) KeywordRankings(context.Context, models.RankingQuery) (map[string]models.RankingRecord, error) {
	s.count("rankings")
	if s.rankingsErr != nil {
		return nil, s.rankingsErr
	}
	return s.rankings, nil
}

func (s *stubProvider) CompetitorRankings(context.Context, models.RankingQuery) (map[string]map[string]models.RankingRecord, error) {
	s.count("competitor_rankings")
	return map[string]map[string]models.RankingRecord{
		"kw": {"rival.com": {Keyword: "kw", Domain: "rival.com", Position: 2}},
	}, nil
}

func (s *stubProvider) KeywordMetrics(context.Context, []string, string) (map[string]models.KeywordMetrics, error) {
	s.count("keyword_metrics")
	return s.metrics, nil
}

func (s *stubProvider) CompetitorSummary(context.Context, string, string, []string) ([]models.CompetitorSummary, bool, error) {
	s.count("competitor_summary")
	return s.summaries, s.discovered, nil
}

func (s *stubProvider) BacklinkOverview(context.Context, string) (*models.BacklinkOverview, error) {
	s.count("backlinks")
	return s.backlinks, nil
}

func newTestOrchestrator(p repository.RankingProvider) *FetchOrchestrator {
	cfg := &config.Config{}
	cfg.Cache.Enabled = true
	cfg.Cache.Prefix = "seo"
	cfg.Cache.Version = "v1.0"
	keyed := svccache.NewKeyed(cache.NewMemoryStore(), cfg, xlogger.Nop(), repository.NopMetrics{})
	return NewFetchOrchestrator(p, keyed, xlogger.Nop(), repository.NopMetrics{})
}

func testQuery(id string, qt models.QueryType) ProviderQuery {
	return ProviderQuery{
		ID:   id,
		Type: qt,
		Query: models.RankingQuery{
			Keywords:    []string{"kw"},
			Domain:      "acme.io",
			Market:      "us",
			Competitors: []string{"rival.com"},
		},
	}
}

func TestFetchAllRunsEveryQuery(t *testing.T) {
	p := newStubProvider()
	o := newTestOrchestrator(p)

	queries := []ProviderQuery{
		testQuery("rankings", models.QueryRankings),
		testQuery("competitor_rankings", models.QueryCompetitorRankings),
		testQuery("keyword_metrics", models.QueryKeywordMetrics),
		testQuery("competitor_summary", models.QueryCompetitorSummary),
		testQuery("backlinks", models.QueryBacklinks),
	}

	results := o.FetchAll(context.Background(), queries)
	if len(results) != len(queries) {
		t.Fatalf("got %d results, want %d", len(results), len(queries))
	}
	for id, res := range results {
		if res.Err != nil {
			t.Errorf("query %s failed: %v", id, res.Err)
		}
		if res.Data == nil {
			t.Errorf("query %s returned no data", id)
		}
	}

	rankings, ok := results["rankings"].Data.(map[string]models.RankingRecord)
	if !ok {
		t.Fatalf("rankings payload has wrong type %T", results["rankings"].Data)
	}
	if rankings["kw"].Position != 4 {
		t.Errorf("rankings payload = %+v", rankings)
	}

	summary, ok := results["competitor_summary"].Data.(competitorSummaryPayload)
	if !ok {
		t.Fatalf("summary payload has wrong type %T", results["competitor_summary"].Data)
	}
	if !summary.AutoDiscovered || len(summary.Competitors) != 1 {
		t.Errorf("summary payload = %+v", summary)
	}
}

func TestFetchAllPartialFailure(t *testing.T) {
	p := newStubProvider()
	p.rankingsErr = errors.New("provider down")
	o := newTestOrchestrator(p)

	results := o.FetchAll(context.Background(), []ProviderQuery{
		testQuery("rankings", models.QueryRankings),
		testQuery("keyword_metrics", models.QueryKeywordMetrics),
	})

	if results["rankings"].Err == nil {
		t.Error("expected rankings to fail")
	}
	if results["keyword_metrics"].Err != nil {
		t.Errorf("sibling query should survive: %v", results["keyword_metrics"].Err)
	}
	metrics := results["keyword_metrics"].Data.(map[string]models.KeywordMetrics)
	if metrics["kw"].SearchVolume != 900 {
		t.Errorf("metrics payload = %+v", metrics)
	}
}

func TestFetchAllUsesCacheOnRepeat(t *testing.T) {
	p := newStubProvider()
	o := newTestOrchestrator(p)
	q := []ProviderQuery{testQuery("rankings", models.QueryRankings)}

	o.FetchAll(context.Background(), q)
	o.FetchAll(context.Background(), q)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls["rankings"] != 1 {
		t.Errorf("provider calls = %d, want 1 (second batch should hit cache)", p.calls["rankings"])
	}
}

func TestFetchAllReportsProgress(t *testing.T) {
	p := newStubProvider()
	o := newTestOrchestrator(p)

	var (
		mu      sync.Mutex
		updates []ProgressUpdate
	)
	o.FetchAll(context.Background(),
		[]ProviderQuery{testQuery("rankings", models.QueryRankings)},
		WithProgress(func(u ProgressUpdate) {
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		}),
	)

	if len(updates) != 2 {
		t.Fatalf("got %d progress updates, want 2", len(updates))
	}
	if updates[0].State != ProgressStarted || updates[1].State != ProgressFinished {
		t.Errorf("updates = %+v", updates)
	}
}

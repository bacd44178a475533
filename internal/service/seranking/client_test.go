package seranking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	"RankPulse/internal/service/ratelimit"
	xhttp "RankPulse/pkg/http"
	xlogger "RankPulse/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		apiKey:       "test-key",
		baseURL:      baseURL,
		engineID:     368,
		http:         xhttp.NewClient(xhttp.WithTimeout(5 * time.Second)),
		limiter:      ratelimit.New(time.Millisecond),
		backoff:      ratelimit.Backoff{Base: time.Millisecond, Max: 5 * time.Millisecond},
		maxRetries:   5,
		pollInterval: 5 * time.Millisecond,
		pollTimeout:  200 * time.Millisecond,
		logger:       xlogger.Nop(),
		metrics:      repository.NopMetrics{},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestKeywordRankingsPollsUntilReady(t *testing.T) {
	var polls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/serp/tasks":
			if got := r.Header.Get("Authorization"); got != "Token test-key" {
				t.Errorf("unexpected auth header %q", got)
			}
			var payload map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode submit payload: %v", err)
			}
			if _, ok := payload["engine_id"]; !ok {
				t.Error("submit payload missing engine_id")
			}
			writeJSON(t, w, []map[string]string{
				{"query": "golf shoes", "task_id": "t1"},
			})
		case "/serp/tasks/status":
			if r.URL.Query().Get("task_id") != "t1" {
				t.Errorf("unexpected task_id %q", r.URL.Query().Get("task_id"))
			}
			// stay in processing for the first two polls
			if atomic.AddInt64(&polls, 1) <= 2 {
				writeJSON(t, w, map[string]string{"status": "processing"})
				return
			}
			writeJSON(t, w, map[string]interface{}{
				"status": "complete",
				"results": []map[string]interface{}{
					{"position": 1, "url": "https://other.example/page", "title": "Other"},
					{"position": 4, "url": "https://shop.acme.io/golf", "title": "Acme Golf"},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	records, err := c.KeywordRankings(context.Background(), models.RankingQuery{
		Keywords: []string{"golf shoes"},
		Domain:   "acme.io",
		Market:   "us",
	})
	if err != nil {
		t.Fatalf("KeywordRankings: %v", err)
	}

	rec, ok := records["golf shoes"]
	if !ok {
		t.Fatalf("missing record for keyword, got %v", records)
	}
	if rec.Position != 4 {
		t.Errorf("position = %d, want 4", rec.Position)
	}
	if rec.URL != "https://shop.acme.io/golf" {
		t.Errorf("url = %q", rec.URL)
	}
	if got := atomic.LoadInt64(&polls); got < 3 {
		t.Errorf("expected at least 3 polls, got %d", got)
	}
}

func TestKeywordRankingsDomainNotRanked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/serp/tasks":
			writeJSON(t, w, []map[string]string{{"query": "kw", "task_id": "t1"}})
		case "/serp/tasks/status":
			writeJSON(t, w, map[string]interface{}{
				"status": "complete",
				"results": []map[string]interface{}{
					{"position": 1, "url": "https://unrelated.example/", "title": "x"},
				},
			})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	records, err := c.KeywordRankings(context.Background(), models.RankingQuery{
		Keywords: []string{"kw"},
		Domain:   "acme.io",
	})
	if err != nil {
		t.Fatalf("KeywordRankings: %v", err)
	}
	if rec := records["kw"]; rec.Ranked() {
		t.Errorf("expected not-found sentinel, got position %d", rec.Position)
	}
}

func TestPollTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/serp/tasks":
			writeJSON(t, w, []map[string]string{{"query": "kw", "task_id": "t1"}})
		case "/serp/tasks/status":
			writeJSON(t, w, map[string]string{"status": "processing"})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.pollTimeout = 30 * time.Millisecond

	_, err := c.KeywordRankings(context.Background(), models.RankingQuery{
		Keywords: []string{"kw"},
		Domain:   "acme.io",
	})
	if !errors.Is(err, ErrTaskTimeout) {
		t.Fatalf("err = %v, want ErrTaskTimeout", err)
	}
}

func TestRateLimitRetriesThenSucceeds(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, []map[string]interface{}{
			{"keyword": "kw", "volume": 900, "competition": "0.42", "cpc": "1.30", "difficulty": 55, "is_data_found": true},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	metrics, err := c.KeywordMetrics(context.Background(), []string{"kw"}, "us")
	if err != nil {
		t.Fatalf("KeywordMetrics: %v", err)
	}
	if got := atomic.LoadInt64(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	m := metrics["kw"]
	if m.SearchVolume != 900 || m.Difficulty != 55 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if m.CPC != 1.30 {
		t.Errorf("cpc = %v, want 1.30", m.CPC)
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.maxRetries = 3

	_, err := c.KeywordMetrics(context.Background(), []string{"kw"}, "us")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if got := atomic.LoadInt64(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.BacklinkOverview(context.Background(), "acme.io")

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if provErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", provErr.Status)
	}
	if got := atomic.LoadInt64(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestUnknownTaskStatusIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/serp/tasks":
			writeJSON(t, w, []map[string]string{{"query": "kw", "task_id": "t1"}})
		case "/serp/tasks/status":
			writeJSON(t, w, map[string]string{"status": "exploded"})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.KeywordRankings(context.Background(), models.RankingQuery{
		Keywords: []string{"kw"},
		Domain:   "acme.io",
	})

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want *MalformedError", err)
	}
}

func TestCompetitorSummaryAutoDiscovers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domain/competitors" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("domain") != "acme.io" || r.URL.Query().Get("type") != "organic" {
			t.Errorf("unexpected query %v", r.URL.Query())
		}
		rows := make([]map[string]interface{}, 0, 8)
		for i := 0; i < 8; i++ {
			rows = append(rows, map[string]interface{}{
				"domain":          "rival" + string(rune('a'+i)) + ".com",
				"common_keywords": 100 - i,
			})
		}
		writeJSON(t, w, rows)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	summaries, discovered, err := c.CompetitorSummary(context.Background(), "acme.io", "us", nil)
	if err != nil {
		t.Fatalf("CompetitorSummary: %v", err)
	}
	if !discovered {
		t.Error("expected discovered=true for empty competitor list")
	}
	if len(summaries) != discoveredCompetitorLimit {
		t.Fatalf("got %d summaries, want %d", len(summaries), discoveredCompetitorLimit)
	}
	if summaries[0].Domain != "rivala.com" || summaries[0].CommonKeywords != 100 {
		t.Errorf("unexpected first summary %+v", summaries[0])
	}
}

func TestCompetitorSummaryExplicitList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]interface{}{
			{"domain": "known.com", "common_keywords": 40, "total_keywords": 900},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	summaries, discovered, err := c.CompetitorSummary(context.Background(), "acme.io", "us", []string{"known.com", "unknown.com"})
	if err != nil {
		t.Fatalf("CompetitorSummary: %v", err)
	}
	if discovered {
		t.Error("expected discovered=false for explicit list")
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	if summaries[0].CommonKeywords != 40 {
		t.Errorf("known competitor stats not carried: %+v", summaries[0])
	}
	if summaries[1].Domain != "unknown.com" || summaries[1].CommonKeywords != 0 {
		t.Errorf("unknown competitor should be zeroed: %+v", summaries[1])
	}
}

func TestPartialKeywordFailureKeepsSiblings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/serp/tasks":
			writeJSON(t, w, []map[string]string{
				{"query": "good", "task_id": "t-good"},
				{"query": "stuck", "task_id": "t-stuck"},
			})
		case "/serp/tasks/status":
			if r.URL.Query().Get("task_id") == "t-stuck" {
				writeJSON(t, w, map[string]string{"status": "processing"})
				return
			}
			writeJSON(t, w, map[string]interface{}{
				"status": "complete",
				"results": []map[string]interface{}{
					{"position": 2, "url": "https://acme.io/", "title": "Acme"},
				},
			})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.pollTimeout = 30 * time.Millisecond

	records, err := c.KeywordRankings(context.Background(), models.RankingQuery{
		Keywords: []string{"good", "stuck"},
		Domain:   "acme.io",
	})
	if err != nil {
		t.Fatalf("KeywordRankings: %v", err)
	}
	if _, ok := records["good"]; !ok {
		t.Error("surviving keyword missing from results")
	}
	if _, ok := records["stuck"]; ok {
		t.Error("timed-out keyword should be omitted")
	}
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	svccache "RankPulse/internal/service/cache"
	"RankPulse/pkg/cache"
	xlogger "RankPulse/pkg/logger"
)

// ProviderQuery is one independently fetchable unit of a report. Queries in a
// batch share nothing; each one succeeds or fails on its own.
type ProviderQuery struct {
	ID    string
	Type  models.QueryType
	Query models.RankingQuery
}

// QueryResult is the outcome of one query. Data holds the type-specific
// payload when Err is nil.
type QueryResult struct {
	Type    models.QueryType
	Data    interface{}
	Err     error
	Elapsed time.Duration
}

// ProgressState tags progress callbacks.
type ProgressState string

const (
	ProgressStarted  ProgressState = "started"
	ProgressFinished ProgressState = "finished"
	ProgressFailed   ProgressState = "failed"
)

// ProgressUpdate is pushed to the optional progress callback as each query
// starts and completes, so a streaming client can watch a long batch advance.
type ProgressUpdate struct {
	QueryID string           `json:"query_id"`
	Type    models.QueryType `json:"type"`
	State   ProgressState    `json:"state"`
	Error   string           `json:"error,omitempty"`
	Elapsed float64          `json:"elapsed_seconds,omitempty"`
}

// FetchOption tweaks one FetchAll call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	progress func(ProgressUpdate)
}

// WithProgress registers a callback invoked from the fetching goroutines. The
// callback must be safe for concurrent use.
func WithProgress(fn func(ProgressUpdate)) FetchOption {
	return func(o *fetchOptions) { o.progress = fn }
}

// competitorSummaryPayload keeps the discovery flag next to the rows so the
// pair survives the cache round trip together.
type competitorSummaryPayload struct {
	Competitors    []models.CompetitorSummary `json:"competitors"`
	AutoDiscovered bool                       `json:"auto_discovered"`
}

// FetchOrchestrator runs a batch of provider queries in parallel through the
// cache layer. The provider client underneath serializes actual network
// dispatch on the shared rate limiter, so fan-out here costs nothing extra
// against the provider quota.
type FetchOrchestrator struct {
	provider repository.RankingProvider
	cache    *svccache.KeyedCache
	logger   *xlogger.Logger
	metrics  repository.Metrics
}

// NewFetchOrchestrator wires the orchestrator.
func NewFetchOrchestrator(provider repository.RankingProvider, keyed *svccache.KeyedCache, l *xlogger.Logger, m repository.Metrics) *FetchOrchestrator {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &FetchOrchestrator{provider: provider, cache: keyed, logger: l, metrics: m}
}

// FetchAll runs every query concurrently and returns a result per query ID.
// A failed query yields a result with Err set; it never hides its siblings'
// data. FetchAll itself only errors via the context.
func (f *FetchOrchestrator) FetchAll(ctx context.Context, queries []ProviderQuery, opts ...FetchOption) map[string]QueryResult {
	options := &fetchOptions{}
	for _, opt := range opts {
		opt(options)
	}

	start := time.Now()
	var (
		mu      sync.Mutex
		results = make(map[string]QueryResult, len(queries))
		wg      sync.WaitGroup
	)

	for _, q := range queries {
		wg.Add(1)
		go func(q ProviderQuery) {
			defer wg.Done()

			if options.progress != nil {
				options.progress(ProgressUpdate{QueryID: q.ID, Type: q.Type, State: ProgressStarted})
			}

			qStart := time.Now()
			data, err := f.runQuery(ctx, q)
			elapsed := time.Since(qStart)

			if err != nil {
				f.metrics.RecordQueryFailure(string(q.Type), failureReason(err))
				f.logger.Warn("provider query failed",
					xlogger.String("query_id", q.ID),
					xlogger.String("query_type", string(q.Type)),
					xlogger.Error(err),
				)
				if options.progress != nil {
					options.progress(ProgressUpdate{
						QueryID: q.ID, Type: q.Type, State: ProgressFailed,
						Error: err.Error(), Elapsed: elapsed.Seconds(),
					})
				}
			} else if options.progress != nil {
				options.progress(ProgressUpdate{
					QueryID: q.ID, Type: q.Type, State: ProgressFinished,
					Elapsed: elapsed.Seconds(),
				})
			}

			mu.Lock()
			results[q.ID] = QueryResult{Type: q.Type, Data: data, Err: err, Elapsed: elapsed}
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	f.metrics.RecordBatchDuration(time.Since(start).Seconds())
	return results
}

// runQuery dispatches one query through the cache to the provider and returns
// the typed payload.
func (f *FetchOrchestrator) runQuery(ctx context.Context, q ProviderQuery) (interface{}, error) {
	switch q.Type {
	case models.QueryRankings:
		var out map[string]models.RankingRecord
		err := f.cache.GetOrFetch(ctx, q.Type, rankingParams(q.Query, false), &out, func(ctx context.Context) (interface{}, error) {
			return f.provider.KeywordRankings(ctx, q.Query)
		})
		return out, err

	case models.QueryCompetitorRankings:
		var out map[string]map[string]models.RankingRecord
		err := f.cache.GetOrFetch(ctx, q.Type, rankingParams(q.Query, true), &out, func(ctx context.Context) (interface{}, error) {
			return f.provider.CompetitorRankings(ctx, q.Query)
		})
		return out, err

	case models.QueryKeywordMetrics:
		params := map[string]interface{}{
			"keywords": cache.NormalizeStrings(q.Query.Keywords),
			"market":   q.Query.Market,
		}
		var out map[string]models.KeywordMetrics
		err := f.cache.GetOrFetch(ctx, q.Type, params, &out, func(ctx context.Context) (interface{}, error) {
			return f.provider.KeywordMetrics(ctx, q.Query.Keywords, q.Query.Market)
		})
		return out, err

	case models.QueryCompetitorSummary:
		params := map[string]interface{}{
			"domain":      q.Query.Domain,
			"market":      q.Query.Market,
			"competitors": cache.NormalizeStrings(q.Query.Competitors),
		}
		var out competitorSummaryPayload
		err := f.cache.GetOrFetch(ctx, q.Type, params, &out, func(ctx context.Context) (interface{}, error) {
			rows, discovered, err := f.provider.CompetitorSummary(ctx, q.Query.Domain, q.Query.Market, q.Query.Competitors)
			if err != nil {
				return nil, err
			}
			return competitorSummaryPayload{Competitors: rows, AutoDiscovered: discovered}, nil
		})
		return out, err

	case models.QueryBacklinks:
		params := map[string]interface{}{"domain": q.Query.Domain}
		var out models.BacklinkOverview
		err := f.cache.GetOrFetch(ctx, q.Type, params, &out, func(ctx context.Context) (interface{}, error) {
			return f.provider.BacklinkOverview(ctx, q.Query.Domain)
		})
		if err != nil {
			return nil, err
		}
		return &out, nil

	default:
		return nil, &UnknownQueryTypeError{Type: q.Type}
	}
}

func rankingParams(q models.RankingQuery, withCompetitors bool) map[string]interface{} {
	params := map[string]interface{}{
		"domain":   q.Domain,
		"market":   q.Market,
		"keywords": cache.NormalizeStrings(q.Keywords),
	}
	if withCompetitors {
		params["competitors"] = cache.NormalizeStrings(q.Competitors)
	}
	return params
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return "context"
	default:
		return "provider"
	}
}

// UnknownQueryTypeError marks a query type the orchestrator cannot dispatch.
type UnknownQueryTypeError struct {
	Type models.QueryType
}

func (e *UnknownQueryTypeError) Error() string {
	return "unknown query type " + string(e.Type)
}

package seranking

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"RankPulse/internal/domain/models"
	xlogger "RankPulse/pkg/logger"
)

// submitSERPTasks starts one asynchronous SERP job per keyword and returns
// the task handles.
func (c *Client) submitSERPTasks(ctx context.Context, keywords []string) ([]serpTask, error) {
	payload := map[string]interface{}{
		"engine_id": c.engineID,
		"query":     keywords,
	}

	var tasks []serpTask
	if err := c.do(ctx, "POST", "/serp/tasks", nil, nil, payload, &tasks); err != nil {
		return nil, fmt.Errorf("submit serp tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, &MalformedError{Endpoint: "/serp/tasks", Reason: "no tasks returned"}
	}
	return tasks, nil
}

// pollTask drives one task through submitted -> polling -> ready, with the
// poll timeout as a hard bound on total time in polling. An unknown status
// fails the task without consuming the remaining budget.
func (c *Client) pollTask(ctx context.Context, task serpTask) ([]serpResult, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for {
		if time.Now().After(deadline) {
			return nil, ErrTaskTimeout
		}

		var status serpStatus
		query := url.Values{"task_id": []string{task.TaskID}}
		if err := c.do(ctx, "GET", "/serp/tasks/status", query, nil, nil, &status); err != nil {
			return nil, err
		}

		switch {
		case status.Results != nil:
			return *status.Results, nil
		case status.Status == "processing" || status.Status == "queued":
			timer := time.NewTimer(c.pollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		default:
			return nil, &MalformedError{
				Endpoint: "/serp/tasks/status",
				Reason:   fmt.Sprintf("unknown task status %q", status.Status),
			}
		}
	}
}

// collectSERPResults submits tasks for the keywords and polls them
// concurrently. Per-keyword failures are logged and dropped from the result
// map so one slow keyword cannot sink its siblings; the error return is
// non-nil only when nothing succeeded.
func (c *Client) collectSERPResults(ctx context.Context, keywords []string) (map[string][]serpResult, error) {
	tasks, err := c.submitSERPTasks(ctx, keywords)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make(map[string][]serpResult, len(tasks))
		lastErr error
		wg      sync.WaitGroup
	)

	for _, task := range tasks {
		wg.Add(1)
		go func(task serpTask) {
			defer wg.Done()
			rows, err := c.pollTask(ctx, task)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				c.logger.Warn("serp task failed",
					xlogger.String("keyword", task.Query),
					xlogger.Error(err),
				)
				return
			}
			results[task.Query] = rows
		}(task)
	}
	wg.Wait()

	if len(results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return results, nil
}

// matchDomain finds the first result whose URL belongs to the domain.
func matchDomain(rows []serpResult, domain string) (int, string, string) {
	needle := strings.ToLower(domain)
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.URL), needle) {
			return row.Position, row.URL, row.Title
		}
	}
	return models.PositionNotFound, "", ""
}

// KeywordRankings resolves the query domain's position for every keyword.
func (c *Client) KeywordRankings(ctx context.Context, q models.RankingQuery) (map[string]models.RankingRecord, error) {
	results, err := c.collectSERPResults(ctx, q.Keywords)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make(map[string]models.RankingRecord, len(results))
	for keyword, rows := range results {
		position, pageURL, title := matchDomain(rows, q.Domain)
		records[keyword] = models.RankingRecord{
			Keyword:    keyword,
			Domain:     q.Domain,
			Position:   position,
			URL:        pageURL,
			Title:      title,
			ObservedAt: now,
		}
	}
	return records, nil
}

// CompetitorRankings resolves each competitor's position per keyword off the
// same SERP results.
func (c *Client) CompetitorRankings(ctx context.Context, q models.RankingQuery) (map[string]map[string]models.RankingRecord, error) {
	results, err := c.collectSERPResults(ctx, q.Keywords)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make(map[string]map[string]models.RankingRecord, len(results))
	for keyword, rows := range results {
		perCompetitor := make(map[string]models.RankingRecord, len(q.Competitors))
		for _, competitor := range q.Competitors {
			position, pageURL, title := matchDomain(rows, competitor)
			perCompetitor[competitor] = models.RankingRecord{
				Keyword:    keyword,
				Domain:     competitor,
				Position:   position,
				URL:        pageURL,
				Title:      title,
				ObservedAt: now,
			}
		}
		records[keyword] = perCompetitor
	}
	return records, nil
}

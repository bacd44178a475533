package seranking

import (
	"context"
	"fmt"
	"net/url"

	"RankPulse/internal/domain/models"
	xlogger "RankPulse/pkg/logger"
)

// discoveredCompetitorLimit caps auto-discovery so a large account doesn't
// blow up the report.
const discoveredCompetitorLimit = 5

// KeywordMetrics pulls volume, CPC, competition and difficulty for the
// keywords via the research export endpoint. Keywords the provider has no
// data for are omitted from the map.
func (c *Client) KeywordMetrics(ctx context.Context, keywords []string, market string) (map[string]models.KeywordMetrics, error) {
	form := url.Values{}
	for _, kw := range keywords {
		form.Add("keywords[]", kw)
	}
	form.Set("sort", "volume")
	form.Set("sort_order", "desc")

	query := url.Values{"source": []string{market}}

	var rows []exportRow
	if err := c.do(ctx, "POST", "/keywords/export", query, form, nil, &rows); err != nil {
		return nil, fmt.Errorf("keyword export: %w", err)
	}

	metrics := make(map[string]models.KeywordMetrics, len(rows))
	for _, row := range rows {
		if !row.IsDataFound {
			c.logger.Debug("no research data for keyword", xlogger.String("keyword", row.Keyword))
			continue
		}
		competition, _ := row.Competition.Float64()
		cpc, _ := row.CPC.Float64()
		metrics[row.Keyword] = models.KeywordMetrics{
			Keyword:          row.Keyword,
			SearchVolume:     row.Volume,
			CPC:              cpc,
			Competition:      competition,
			CompetitionIndex: int(competition * 100),
			Difficulty:       row.Difficulty,
		}
	}
	return metrics, nil
}

// CompetitorSummary returns overlap stats for the given competitors. With an
// empty list it asks the provider to discover organic competitors and keeps
// the strongest few; the boolean reports whether discovery ran.
func (c *Client) CompetitorSummary(ctx context.Context, domain, market string, competitors []string) ([]models.CompetitorSummary, bool, error) {
	query := url.Values{
		"source": []string{market},
		"domain": []string{domain},
		"type":   []string{"organic"},
		"stats":  []string{"1"},
	}

	var rows []competitorRow
	if err := c.do(ctx, "GET", "/domain/competitors", query, nil, nil, &rows); err != nil {
		return nil, false, fmt.Errorf("competitor discovery: %w", err)
	}

	byDomain := make(map[string]competitorRow, len(rows))
	for _, row := range rows {
		byDomain[row.Domain] = row
	}

	if len(competitors) == 0 {
		limit := len(rows)
		if limit > discoveredCompetitorLimit {
			limit = discoveredCompetitorLimit
		}
		summaries := make([]models.CompetitorSummary, 0, limit)
		for _, row := range rows[:limit] {
			summaries = append(summaries, summaryFromRow(row))
		}
		return summaries, true, nil
	}

	// Explicit list: report each requested competitor, with zeroed stats for
	// any the provider does not know about.
	summaries := make([]models.CompetitorSummary, 0, len(competitors))
	for _, competitor := range competitors {
		if row, ok := byDomain[competitor]; ok {
			summaries = append(summaries, summaryFromRow(row))
			continue
		}
		summaries = append(summaries, models.CompetitorSummary{Domain: competitor})
	}
	return summaries, false, nil
}

func summaryFromRow(row competitorRow) models.CompetitorSummary {
	return models.CompetitorSummary{
		Domain:         row.Domain,
		CommonKeywords: row.CommonKeywords,
		TotalKeywords:  row.TotalKeywords,
		TrafficSum:     row.TrafficSum,
		PriceSum:       row.PriceSum,
	}
}

// BacklinkOverview summarizes the domain's backlink profile.
func (c *Client) BacklinkOverview(ctx context.Context, domain string) (*models.BacklinkOverview, error) {
	query := url.Values{"domain": []string{domain}}

	var summary backlinkSummary
	if err := c.do(ctx, "GET", "/backlinks/summary", query, nil, nil, &summary); err != nil {
		return nil, fmt.Errorf("backlink summary: %w", err)
	}

	overview := &models.BacklinkOverview{
		Domain:           domain,
		TotalBacklinks:   summary.TotalBacklinks,
		ReferringDomains: summary.ReferringDomains,
	}
	for _, top := range summary.Top {
		overview.TopReferrers = append(overview.TopReferrers, models.ReferringDomainStat{
			Domain:    top.Domain,
			Backlinks: top.Backlinks,
		})
	}
	return overview, nil
}

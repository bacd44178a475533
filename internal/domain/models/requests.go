package models

// ReportRequest is the inbound payload for report generation.
type ReportRequest struct {
	Domain         string         `json:"domain" validate:"required,hostname_rfc1123"`
	Market         string         `json:"market" default:"uk" validate:"omitempty,len=2"`
	Keywords       []string       `json:"keywords" validate:"required,min=1,max=100,dive,min=1"`
	Competitors    []string       `json:"competitors" validate:"omitempty,max=20,dive,hostname_rfc1123"`
	HistoricalData []HistoryPoint `json:"historical_data"`
	TopN           int            `json:"top_n" default:"10" validate:"omitempty,gte=1,lte=100"`
	Sections       []string       `json:"sections" validate:"omitempty,dive,oneof=rankings competitor_rankings keyword_metrics competitor_summary backlinks"`
}

// RequestedSections expands an empty section list to the default set.
// Backlinks are opt-in; the overview endpoint is slow and rarely needed in
// the daily brief.
func (r *ReportRequest) RequestedSections() []QueryType {
	if len(r.Sections) == 0 {
		return []QueryType{
			QueryRankings,
			QueryCompetitorRankings,
			QueryKeywordMetrics,
			QueryCompetitorSummary,
		}
	}
	out := make([]QueryType, 0, len(r.Sections))
	for _, s := range r.Sections {
		out = append(out, QueryType(s))
	}
	return out
}

// InvalidateRequest selects cache entries to drop. Empty fields clear the
// whole namespace for the current cache version.
type InvalidateRequest struct {
	QueryType string `json:"query_type" validate:"omitempty,oneof=rankings competitor_rankings keyword_metrics competitor_summary backlinks"`
	Pattern   string `json:"pattern"`
}

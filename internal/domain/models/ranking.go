package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"RankPulse/pkg/util"
)

// QueryType identifies a provider query kind. It doubles as the cache
// namespace segment and the TTL policy key.
type QueryType string

const (
	QueryRankings           QueryType = "rankings"
	QueryCompetitorRankings QueryType = "competitor_rankings"
	QueryKeywordMetrics     QueryType = "keyword_metrics"
	QueryCompetitorSummary  QueryType = "competitor_summary"
	QueryBacklinks          QueryType = "backlinks"
)

// Severity grades how far a position sits from its historical mean.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// ChangeType says whether a deviation is good or bad news. Smaller position
// numbers denote better rank.
type ChangeType string

const (
	ChangeImprovement ChangeType = "improvement"
	ChangeDecline     ChangeType = "decline"
)

// Direction of a top-N transition.
type Direction string

const (
	EnteredTopN Direction = "entered_top_n"
	ExitedTopN  Direction = "exited_top_n"
)

// PositionNotFound is the explicit sentinel for a domain absent from the
// tracked result range. A RankingRecord never carries a null position.
const PositionNotFound = 0

// RankingQuery is the immutable input to one fetch cycle.
type RankingQuery struct {
	Keywords    []string `json:"keywords"`
	Domain      string   `json:"domain"`
	Market      string   `json:"market"`
	Competitors []string `json:"competitors,omitempty"`
}

// RankingRecord is one observed (keyword, domain) position.
type RankingRecord struct {
	Keyword      string    `json:"keyword"`
	Domain       string    `json:"domain"`
	Position     int       `json:"position"`
	SearchVolume int       `json:"search_volume,omitempty"`
	CPC          float64   `json:"cpc,omitempty"`
	Difficulty   int       `json:"difficulty,omitempty"`
	URL          string    `json:"url,omitempty"`
	Title        string    `json:"title,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Ranked reports whether the domain was found in the results at all.
func (r RankingRecord) Ranked() bool {
	return r.Position != PositionNotFound
}

// FlexTime accepts RFC3339, date-only, and unix-seconds timestamps. Callers
// hand over history exported from assorted workflow tools, so the format
// varies.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, ok := util.ParseTime(s)
	if !ok {
		return fmt.Errorf("unparseable time %q", s)
	}
	t.Time = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

// HistoryPoint is one caller-supplied prior observation. History must arrive
// chronologically ordered per keyword; duplicates count as distinct samples.
type HistoryPoint struct {
	Keyword    string   `json:"keyword"`
	Position   int      `json:"position"`
	ObservedAt FlexTime `json:"observed_at"`
}

// Anomaly is a statistically significant deviation of the current position
// from the keyword's historical mean.
type Anomaly struct {
	Keyword          string     `json:"keyword"`
	CurrentPosition  int        `json:"current_position"`
	ExpectedPosition float64    `json:"expected_position"`
	ZScore           float64    `json:"z_score"`
	Severity         Severity   `json:"severity"`
	ChangeType       ChangeType `json:"change_type"`
}

// TransitionEvent records a keyword crossing the top-N boundary.
type TransitionEvent struct {
	Keyword          string    `json:"keyword"`
	Direction        Direction `json:"direction"`
	PreviousPosition *int      `json:"previous_position"`
	CurrentPosition  int       `json:"current_position"`
}

// Movement records a position change while staying inside the top N.
type Movement struct {
	Keyword          string     `json:"keyword"`
	PreviousPosition int        `json:"previous_position"`
	CurrentPosition  int        `json:"current_position"`
	Change           int        `json:"change"`
	ChangeType       ChangeType `json:"change_type"`
}

// KeywordMetrics carries volume/difficulty data for one keyword.
type KeywordMetrics struct {
	Keyword          string  `json:"keyword"`
	SearchVolume     int     `json:"search_volume"`
	CPC              float64 `json:"cpc"`
	Competition      float64 `json:"competition"`
	CompetitionIndex int     `json:"competition_index"`
	Difficulty       int     `json:"difficulty"`
}

// CompetitorSummary describes one competing domain's keyword overlap.
type CompetitorSummary struct {
	Domain         string `json:"domain"`
	CommonKeywords int    `json:"common_keywords"`
	TotalKeywords  int    `json:"total_keywords"`
	TrafficSum     int    `json:"traffic_sum"`
	PriceSum       int    `json:"price_sum"`
}

// BacklinkOverview summarizes a domain's backlink profile.
type BacklinkOverview struct {
	Domain           string                `json:"domain"`
	TotalBacklinks   int                   `json:"total_backlinks"`
	ReferringDomains int                   `json:"referring_domains"`
	TopReferrers     []ReferringDomainStat `json:"top_referring_domains,omitempty"`
}

// ReferringDomainStat is one referring domain in a backlink overview.
type ReferringDomainStat struct {
	Domain    string `json:"domain"`
	Backlinks int    `json:"backlinks"`
}

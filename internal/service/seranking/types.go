package seranking

import "encoding/json"

// serpTask is one submitted SERP job.
type serpTask struct {
	Query  string `json:"query"`
	TaskID string `json:"task_id"`
}

// serpResult is one organic result row inside a finished SERP task.
type serpResult struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// serpStatus is the polling response. Results stays nil while the job is
// processing; its presence signals completion.
type serpStatus struct {
	Status  string        `json:"status"`
	Results *[]serpResult `json:"results"`
}

// exportRow is one row of the keyword research export. Numeric fields arrive
// as strings or numbers depending on the account tier, hence json.Number.
type exportRow struct {
	Keyword     string      `json:"keyword"`
	Volume      int         `json:"volume"`
	Competition json.Number `json:"competition"`
	CPC         json.Number `json:"cpc"`
	Difficulty  int         `json:"difficulty"`
	IsDataFound bool        `json:"is_data_found"`
}

// competitorRow is one row of the competitor discovery endpoint.
type competitorRow struct {
	Domain         string `json:"domain"`
	CommonKeywords int    `json:"common_keywords"`
	TotalKeywords  int    `json:"total_keywords"`
	TrafficSum     int    `json:"traffic_sum"`
	PriceSum       int    `json:"price_sum"`
}

// backlinkSummary is the backlink overview response.
type backlinkSummary struct {
	TotalBacklinks   int `json:"total_backlinks"`
	ReferringDomains int `json:"referring_domains"`
	Top              []struct {
		Domain    string `json:"domain"`
		Backlinks int    `json:"backlinks"`
	} `json:"top_referring_domains"`
}

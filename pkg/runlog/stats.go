package runlog

import (
	"math"
)

// ModelStats aggregates usage for one model.
type ModelStats struct {
	Requests         int     `json:"requests"`
	OKCount          int     `json:"ok_count"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	PromptCost       float64 `json:"prompt_cost"`
	CompletionCost   float64 `json:"completion_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// Stats is the token/cost summary of a whole log file.
type Stats struct {
	TotalRequests    int                    `json:"total_requests"`
	OKCount          int                    `json:"ok_count"`
	ErrorCount       int                    `json:"error_count"`
	PromptTokens     int                    `json:"prompt_tokens"`
	CompletionTokens int                    `json:"completion_tokens"`
	TotalTokens      int                    `json:"total_tokens"`
	PromptCost       float64                `json:"prompt_cost"`
	CompletionCost   float64                `json:"completion_cost"`
	TotalCost        float64                `json:"total_cost"`
	ByModel          map[string]*ModelStats `json:"by_model"`
}

// ComputeStats aggregates every record in the sequence, globally and per
// model. Duplicate keys are all counted; this is spend accounting, not
// the logical view.
func ComputeStats(records []Record) *Stats {
	stats := &Stats{ByModel: make(map[string]*ModelStats)}

	for i := range records {
		rec := &records[i]
		stats.TotalRequests++

		model := rec.Model
		if model == "" {
			model = "unknown"
		}
		ms, ok := stats.ByModel[model]
		if !ok {
			ms = &ModelStats{}
			stats.ByModel[model] = ms
		}
		ms.Requests++

		if rec.Status == StatusOK {
			stats.OKCount++
			ms.OKCount++
		} else {
			stats.ErrorCount++
		}

		if rec.Usage == nil {
			continue
		}
		u := rec.Usage
		promptCost := u.CostDetails["upstream_inference_prompt_cost"]
		completionCost := u.CostDetails["upstream_inference_completions_cost"]

		stats.PromptTokens += u.PromptTokens
		stats.CompletionTokens += u.CompletionTokens
		stats.TotalTokens += u.TotalTokens
		stats.PromptCost += promptCost
		stats.CompletionCost += completionCost
		stats.TotalCost += u.Cost

		ms.PromptTokens += u.PromptTokens
		ms.CompletionTokens += u.CompletionTokens
		ms.TotalTokens += u.TotalTokens
		ms.PromptCost += promptCost
		ms.CompletionCost += completionCost
		ms.TotalCost += u.Cost
	}

	stats.PromptCost = roundCost(stats.PromptCost)
	stats.CompletionCost = roundCost(stats.CompletionCost)
	stats.TotalCost = roundCost(stats.TotalCost)
	for _, ms := range stats.ByModel {
		ms.PromptCost = roundCost(ms.PromptCost)
		ms.CompletionCost = roundCost(ms.CompletionCost)
		ms.TotalCost = roundCost(ms.TotalCost)
	}
	return stats
}

// roundCost keeps dollar figures to micro-dollar precision.
func roundCost(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

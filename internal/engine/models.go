package engine

import (
	"time"

	"github.com/raysh454/foliograde/internal/cache"
	"github.com/raysh454/foliograde/internal/checklist"
)

// AnalysisTarget identifies one portfolio to grade. ID and Name are
// caller-supplied labels carried through batch results and CSV export.
type AnalysisTarget struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"portfolio_url"`
}

// AnalysisResult is the full outcome of grading one portfolio.
type AnalysisResult struct {
	URL          string  `json:"url"`
	CanonicalURL string  `json:"canonical_url"`
	Score        float64 `json:"score"`

	Checklist []*checklist.Item             `json:"checklist"`
	Breakdown []checklist.CategoryBreakdown `json:"breakdown"`

	Feedback         string               `json:"feedback"`
	FeedbackProvider string               `json:"feedback_provider"`
	Degraded         bool                 `json:"degraded,omitempty"`
	Resources        []checklist.Resource `json:"learning_resources,omitempty"`

	// Fetch provenance. FetchFailed means both backends failed and the
	// checklist was evaluated against an empty page.
	UsedFallback         bool `json:"used_fallback,omitempty"`
	LowConfidenceWarning bool `json:"low_confidence_warning,omitempty"`
	FetchFailed          bool `json:"fetch_failed,omitempty"`

	AnalysisTime float64   `json:"analysis_time_seconds"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	FromCache    bool      `json:"from_cache"`
	ShareURL     string    `json:"share_url,omitempty"`
}

// BatchItemStatus is the terminal state of one batch item.
type BatchItemStatus string

const (
	BatchItemSuccess BatchItemStatus = "success"
	BatchItemFailed  BatchItemStatus = "failed"
	BatchItemSkipped BatchItemStatus = "skipped"
)

// BatchItem pairs a target with its outcome. Result is nil unless the item
// finished grading.
type BatchItem struct {
	Target AnalysisTarget  `json:"target"`
	Status BatchItemStatus `json:"status"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// BatchSummary aggregates a finished batch. Items preserve input order.
// AverageScore covers successful items only and is nil when none succeeded.
type BatchSummary struct {
	Items          []BatchItem `json:"items"`
	Total          int         `json:"total"`
	Succeeded      int         `json:"succeeded"`
	Failed         int         `json:"failed"`
	Skipped        int         `json:"skipped"`
	AverageScore   *float64    `json:"average_score,omitempty"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
}

// HealthStatus is returned by the health and status endpoints. Cache is only
// populated for the status endpoint.
type HealthStatus struct {
	Status            string          `json:"status"`
	RubricVersion     string          `json:"rubric_version"`
	FeedbackProviders map[string]bool `json:"feedback_providers"`
	Cache             *cache.Stats    `json:"cache,omitempty"`
}

package server

import "github.com/raysh454/foliograde/internal/engine"

// GradeRequest is the payload for grading a single portfolio.
type GradeRequest struct {
	PortfolioURL string `json:"portfolio_url" example:"https://jane.dev"`
	ForceRefresh bool   `json:"force_refresh" example:"false"`
}

// BatchGradeRequest holds the portfolios of one batch run.
type BatchGradeRequest struct {
	Portfolios []engine.AnalysisTarget `json:"portfolios"`
}

// CSVUploadResponse returns the targets parsed from an uploaded roster.
type CSVUploadResponse struct {
	Portfolios []engine.AnalysisTarget `json:"portfolios"`
	Count      int                     `json:"count" example:"12"`
}

// ClearCacheResponse reports how many cached results were removed.
type ClearCacheResponse struct {
	DeletedEntries int64 `json:"deleted_entries" example:"3"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid portfolio URL"`
}

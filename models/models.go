package models

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a research run id does not exist in storage.
var ErrRunNotFound = errors.New("run not found")

// ReportType selects the section templates and prompt framing used when
// planning a report blueprint.
type ReportType string

const (
	ReportMarketResearch    ReportType = "market_research"
	ReportCompanyAnalysis   ReportType = "company_analysis"
	ReportIndustryReport    ReportType = "industry_report"
	ReportTechnicalAnalysis ReportType = "technical_analysis"
)

// ResearchQuery is a single search directive produced by the query generator.
type ResearchQuery struct {
	Query                string   `json:"query"`
	ResearchGoal         string   `json:"research_goal"`
	Keywords             []string `json:"keywords,omitempty"`
	ReliabilityThreshold float64  `json:"reliability_threshold,omitempty"`
	Priority             float64  `json:"priority,omitempty"`
	ParentGoal           string   `json:"parent_goal,omitempty"`
}

// SourceMetadata describes one fetched source and its reliability evaluation.
type SourceMetadata struct {
	URL                  string    `json:"url"`
	Title                string    `json:"title"`
	Domain               string    `json:"domain"`
	ReliabilityScore     float64   `json:"reliability_score"`
	ReliabilityReasoning string    `json:"reliability_reasoning,omitempty"`
	ContentLength        int       `json:"content_length"`
	LastChecked          time.Time `json:"last_checked"`
}

// Learning is one extracted insight with the sources that back it.
type Learning struct {
	Content     string   `json:"content"`
	Reliability float64  `json:"reliability"`
	Sources     []string `json:"sources,omitempty"`
}

// Section is one planned report section. ChartType is empty when the
// section is narrative only.
type Section struct {
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	ChartType string                 `json:"chart_type,omitempty"`
	ChartData map[string]interface{} `json:"chart_data,omitempty"`
}

// ReportBlueprint is the validated plan a report is rendered from.
type ReportBlueprint struct {
	Sections []Section `json:"sections"`
}

// ResearchMetrics aggregates counters collected over a research run.
type ResearchMetrics struct {
	BreadthQueries     int     `json:"breadth_queries"`
	DepthQueries       int     `json:"depth_queries"`
	TotalSources       int     `json:"total_sources"`
	HighQualitySources int     `json:"high_quality_sources"`
	AverageReliability float64 `json:"average_reliability"`
}

// ResearchResult is the full output of a research run before synthesis.
type ResearchResult struct {
	Topic       string           `json:"topic"`
	Learnings   []Learning       `json:"learnings"`
	Sources     []SourceMetadata `json:"source_metadata"`
	VisitedURLs []string         `json:"visited_urls"`
	CreditsUsed int              `json:"credits_used"`
	Metrics     ResearchMetrics  `json:"research_metrics"`
}

// Progress is a point-in-time snapshot emitted while a run executes.
type Progress struct {
	Phase            string `json:"phase"`
	TotalQueries     int    `json:"total_queries"`
	CompletedQueries int    `json:"completed_queries"`
	CurrentQuery     string `json:"current_query,omitempty"`
	LearningsCount   int    `json:"learnings_count"`
}

// RunState tracks the lifecycle of a stored research run.
type RunState string

const (
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

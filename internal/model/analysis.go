package model

import "time"

// PromptMode selects how the judge prompt is composed
type PromptMode string

const (
	// ModeTaxonomy grounds the judge in the full DIMA taxonomy listing
	ModeTaxonomy PromptMode = "taxonomy"
	// ModeHybrid adds embedding-similarity hints on top of the taxonomy
	ModeHybrid PromptMode = "hybrid"
	// ModeLegacy uses generic categories, for when the taxonomy is unavailable
	ModeLegacy PromptMode = "legacy"
)

// Severity levels for a detected technique
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Finding sources distinguish judge detections from retrieval-fused ones
const (
	SourceJudge     = "judge"
	SourceEmbedding = "embedding"
)

// Claim confidence levels
const (
	ConfidenceSupported   = "supported"
	ConfidenceUnsupported = "unsupported"
	ConfidenceMisleading  = "misleading"
)

// SimilarityHit is one taxonomy entry returned by the retrieval layer for a
// query text. Ephemeral: produced and consumed within a single request.
type SimilarityHit struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Family     string  `json:"family"`
	Similarity float64 `json:"similarity"` // cosine similarity in [0,1]
	Rank       int     `json:"rank"`       // 1-based, descending similarity
}

// TechniqueFinding is one detected manipulation technique in the output
type TechniqueFinding struct {
	DimaCode    string `json:"dima_code"`
	DimaFamily  string `json:"dima_family"`
	Name        string `json:"name"`
	Evidence    string `json:"evidence"`
	Severity    string `json:"severity"`
	Explanation string `json:"explanation"`
	Source      string `json:"source,omitempty"` // "judge" or "embedding"
}

// ClaimFinding is one factual assertion the judge evaluated
type ClaimFinding struct {
	Claim      string   `json:"claim"`
	Confidence string   `json:"confidence"` // supported/unsupported/misleading
	Issues     []string `json:"issues"`
	Reasoning  string   `json:"reasoning"`
}

// AxisBreakdown is a transparent aggregation of the taxonomy axis weights
// of the detected techniques. Diagnostic only - never feeds the scores,
// which come from the judge.
type AxisBreakdown struct {
	Persuasion  float64 `json:"persuasion"`
	Speculation float64 `json:"speculation"`
	Factual     float64 `json:"factual"`
	Matched     int     `json:"matched_techniques"` // findings with a known DIMA code
}

// AnalysisResult is the caller-facing output of a single analysis.
// Mutated exactly once, during normalization, then treated as immutable.
type AnalysisResult struct {
	PropagandaScore int    `json:"propaganda_score"`
	ConspiracyScore int    `json:"conspiracy_score"`
	MisinfoScore    int    `json:"misinfo_score"`
	OverallRisk     int    `json:"overall_risk"`
	Techniques      []TechniqueFinding `json:"techniques"`
	Claims          []ClaimFinding     `json:"claims"`
	Summary         string             `json:"summary"`

	// EmbeddingHints carries the raw retrieval output for transparency,
	// independent of whether any hint was fused into Techniques.
	EmbeddingHints []SimilarityHit `json:"embedding_hints,omitempty"`

	AxisBreakdown *AxisBreakdown `json:"axis_breakdown,omitempty"`
}

// ContentMetadata describes the analyzed content
type ContentMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Platform    string `json:"platform,omitempty"`
}

// Report wraps an analysis result with its request context for rendering
type Report struct {
	Subject        string          `json:"subject"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
	Mode           PromptMode      `json:"mode"`
	Language       Language        `json:"language"`
	Input          ContentMetadata `json:"input"`
	ContentExcerpt string          `json:"content_excerpt,omitempty"`
	Analysis       AnalysisResult  `json:"analysis"`
}

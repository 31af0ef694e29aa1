package assessment

import "encoding/json"

// Status is one of the four canonical review states of a checklist item.
type Status string

const (
	StatusFulfilled   Status = "Fulfilled"
	StatusOpen        Status = "Open"
	StatusNotRequired Status = "Not required"
	// StatusNotVerified is also the fallback for anything unrecognized.
	StatusNotVerified Status = "Not verified"
)

// Statuses lists the canonical states in display order.
func Statuses() []Status {
	return []Status{StatusFulfilled, StatusOpen, StatusNotRequired, StatusNotVerified}
}

// AssessmentType tags which reference checklist an upload belongs to.
type AssessmentType string

// ReferenceItem is an entry of the canonical checklist.
type ReferenceItem struct {
	ID          string `json:"id"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Text        string `json:"text"`
	Severity    string `json:"severity,omitempty"`
	WAF         string `json:"waf,omitempty"`
	Service     string `json:"service,omitempty"`
	Link        string `json:"link,omitempty"`
	Training    string `json:"training,omitempty"`
	GUID        string `json:"guid,omitempty"`
}

// RowItem is a single row recovered from an uploaded table. Empty strings mean
// the field was not found in the source. RowIndex is only set when ID is empty
// so the row can be traced back to the grid.
type RowItem struct {
	ID                 string `json:"id,omitempty"`
	RowIndex           *int   `json:"rowIndex,omitempty"`
	Status             Status `json:"status"`
	Comment            string `json:"comment,omitempty"`
	Category           string `json:"category,omitempty"`
	Subcategory        string `json:"subcategory,omitempty"`
	RecommendationText string `json:"recommendationText,omitempty"`
	Severity           string `json:"severity,omitempty"`
	Service            string `json:"service,omitempty"`
	WAF                string `json:"waf,omitempty"`
}

// HasID reports whether the row carries a stable identifier.
func (r RowItem) HasID() bool {
	return r.ID != ""
}

// Grid is a row-major matrix of cell values already extracted from a file.
type Grid [][]string

// Config holds the heuristic constants of ingestion and reconciliation plus
// the locations the tools read from.
type Config struct {
	HeaderScanRows     int     `json:"headerScanRows" yaml:"headerScanRows"`
	HeaderMinCells     int     `json:"headerMinCells" yaml:"headerMinCells"`
	HeaderMinTerms     int     `json:"headerMinTerms" yaml:"headerMinTerms"`
	EmptyRowLimit      int     `json:"emptyRowLimit" yaml:"emptyRowLimit"`
	IDScanCells        int     `json:"idScanCells" yaml:"idScanCells"`
	FallbackTextMinLen int     `json:"fallbackTextMinLen" yaml:"fallbackTextMinLen"`
	IngestBatchSize    int     `json:"ingestBatchSize" yaml:"ingestBatchSize"`
	ReconcileBatchSize int     `json:"reconcileBatchSize" yaml:"reconcileBatchSize"`
	KeywordMinLen      int     `json:"keywordMinLen" yaml:"keywordMinLen"`
	KeywordLimit       int     `json:"keywordLimit" yaml:"keywordLimit"`
	SimilarityMinLen   int     `json:"similarityMinLen" yaml:"similarityMinLen"`
	MatchThreshold     float64 `json:"matchThreshold" yaml:"matchThreshold"`
	DefaultType        string  `json:"defaultType" yaml:"defaultType"`
	ChecklistDir       string  `json:"checklistDir" yaml:"checklistDir"`
	MainChecklistPath  string  `json:"mainChecklistPath" yaml:"mainChecklistPath"`
	Reviewer           string  `json:"reviewer" yaml:"reviewer"`
	WatchSettleMillis  int     `json:"watchSettleMillis" yaml:"watchSettleMillis"`
	MaxParallelUploads int     `json:"maxParallelUploads" yaml:"maxParallelUploads"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.HeaderScanRows <= 0 {
		c.HeaderScanRows = 15
	}
	if c.HeaderMinCells <= 0 {
		c.HeaderMinCells = 6
	}
	if c.HeaderMinTerms <= 0 {
		c.HeaderMinTerms = 3
	}
	if c.EmptyRowLimit <= 0 {
		c.EmptyRowLimit = 10
	}
	if c.IDScanCells <= 0 {
		c.IDScanCells = 3
	}
	if c.FallbackTextMinLen <= 0 {
		c.FallbackTextMinLen = 20
	}
	if c.IngestBatchSize <= 0 {
		c.IngestBatchSize = 100
	}
	if c.ReconcileBatchSize <= 0 {
		c.ReconcileBatchSize = 50
	}
	if c.KeywordMinLen <= 0 {
		c.KeywordMinLen = 4
	}
	if c.KeywordLimit <= 0 {
		c.KeywordLimit = 10
	}
	if c.SimilarityMinLen <= 0 {
		c.SimilarityMinLen = 3
	}
	if c.MatchThreshold <= 0 {
		c.MatchThreshold = 0.3
	}
	if c.DefaultType == "" {
		c.DefaultType = "alz"
	}
	if c.ChecklistDir == "" {
		c.ChecklistDir = "review-checklists/checklists"
	}
	if c.MainChecklistPath == "" {
		c.MainChecklistPath = "checklist.json"
	}
	if c.Reviewer == "" {
		c.Reviewer = "Current User"
	}
	if c.WatchSettleMillis <= 0 {
		c.WatchSettleMillis = 500
	}
	if c.MaxParallelUploads <= 0 {
		c.MaxParallelUploads = 4
	}
}

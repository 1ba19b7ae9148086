package analysis

import (
	"encoding/json"
	"time"
)

// Request is the idea description submitted by a caller.
type Request struct {
	IdeaName       string           `json:"ideaName" validate:"omitempty,min=2,max=100"`
	Summary        string           `json:"summary" validate:"omitempty,min=10,max=2000"`
	Features       []string         `json:"features" validate:"max=20,dive,required,max=200"`
	TargetAudience string           `json:"targetAudience" validate:"max=200"`
	Problem        string           `json:"problem,omitempty" validate:"max=2000"`
	Solution       string           `json:"solution,omitempty" validate:"max=2000"`
	Team           string           `json:"team,omitempty" validate:"max=1000"`
	Reference      *ReferenceRecord `json:"reference,omitempty"`
}

// ReferenceRecord is retrieved context (market figures, comparable services) injected into the prompt.
type ReferenceRecord struct {
	MarketSize string             `json:"marketSize,omitempty" validate:"max=500"`
	Services   []ReferenceService `json:"services,omitempty" validate:"max=20,dive"`
}

type ReferenceService struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Similarity float64 `json:"similarity" validate:"gte=0,lte=1"`
	Source     string  `json:"source,omitempty" validate:"max=300"`
}

// Result maps each top-level report section to its raw JSON value.
// Nested content is advisory and passed through untouched.
type Result map[string]json.RawMessage

// Analysis is what the cache holds for a fingerprint.
type Analysis struct {
	Result  Result `json:"result"`
	Summary string `json:"summary"`
}

// Record is one run handed to a Sink.
type Record struct {
	UserID    string
	RunID     string
	Sections  Result
	Summary   string
	CreatedAt time.Time
}

// Run is the persisted index entry of one analysis.
type Run struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Fingerprint   string          `json:"fingerprint"`
	SchemaVersion string          `json:"schema_version"`
	Summary       string          `json:"summary"`
	Result        json.RawMessage `json:"result"`
	Cached        bool            `json:"cached"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Failure is a persisted failed run, kept for auditing upstream behaviour.
type Failure struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Phase       string    `json:"phase"` // reference | upstream | mapping | persist
	Kind        string    `json:"kind,omitempty"`
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Core domain models shared by the review workflow, the store of record and
// the HTTP surface. Wire shapes live in the adapters; keep these decoupled.

// Verdict is the reviewer's judgment on a comparison.
type Verdict string

const (
	VerdictPending Verdict = "pending"
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
	VerdictRetest  Verdict = "retest"
	VerdictBlocked Verdict = "blocked"
)

// Verdicts returns every verdict in display order.
func Verdicts() []Verdict {
	return []Verdict{VerdictPass, VerdictFail, VerdictRetest, VerdictBlocked, VerdictPending}
}

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictPending, VerdictPass, VerdictFail, VerdictRetest, VerdictBlocked:
		return true
	}
	return false
}

// ParseVerdict converts s into a Verdict, rejecting unknown labels.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if !v.Valid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown verdict %q", s)}
	}
	return v, nil
}

// NormalizeVerdict applies the one defaulting rule for payloads that omit a
// status: absent means pending.
func NormalizeVerdict(s string) (Verdict, error) {
	if s == "" {
		return VerdictPending, nil
	}
	return ParseVerdict(s)
}

// Level is the severity bucket the analysis engine assigns to a region.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// DifferenceDetail is one flagged rectangular region. Area is supplied by the
// engine and trusted as given.
type DifferenceDetail struct {
	X             int     `json:"x"`
	Y             int     `json:"y"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Area          int     `json:"area"`
	Level         Level   `json:"level"`
	AvgDifference float64 `json:"avg_difference"`
}

// Validate checks the geometric invariants of a region.
func (d DifferenceDetail) Validate() error {
	if d.X < 0 || d.Y < 0 {
		return &ValidationError{Field: "difference_details", Reason: "negative origin"}
	}
	if d.Width <= 0 || d.Height <= 0 {
		return &ValidationError{Field: "difference_details", Reason: "non-positive size"}
	}
	if d.AvgDifference < 0 {
		return &ValidationError{Field: "difference_details", Reason: "negative avg_difference"}
	}
	return nil
}

type ComparisonMethod string

const (
	MethodUpload           ComparisonMethod = "upload"
	MethodTemplateMatching ComparisonMethod = "template_matching"
)

type ImageRefs struct {
	Image1URL string
	Image2URL string
}

// Artifacts are the images produced by the engine. Either may be empty.
type Artifacts struct {
	HighlightURL string
	HeatmapURL   string
}

type Analysis struct {
	TotalPixels          int64
	DifferentPixels      int64
	DifferencePercentage float64
}

// Comparison is one similarity analysis plus its reviewer verdict.
type Comparison struct {
	ID                string
	Title             string
	ProjectID         *string
	OwnerID           string
	SimilarityScore   float64
	DifferencesCount  int
	DifferenceDetails []DifferenceDetail // nil when the engine did not report regions
	Status            Verdict
	Method            ComparisonMethod
	TargetURL         *string
	Images            ImageRefs
	Artifacts         Artifacts
	Analysis          *Analysis
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasIdentity reports whether the comparison carries a store-assigned id.
func (c Comparison) HasIdentity() bool {
	return c.ID != "" && c.ID != "undefined"
}

func (c Comparison) HasHeatmap() bool { return c.Artifacts.HeatmapURL != "" }

// WithStatus returns a copy with the verdict and update time replaced.
func (c Comparison) WithStatus(v Verdict, at time.Time) Comparison {
	c.Status = v
	c.UpdatedAt = at
	return c
}

// Validate checks the invariants every comparison crossing a boundary must hold.
func (c Comparison) Validate() error {
	if c.SimilarityScore < 0 || c.SimilarityScore > 100 || math.IsNaN(c.SimilarityScore) {
		return &ValidationError{Field: "similarity_score", Reason: "must be within [0,100]"}
	}
	if c.DifferencesCount < 0 {
		return &ValidationError{Field: "differences_count", Reason: "must be non-negative"}
	}
	if !c.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown verdict %q", c.Status)}
	}
	for _, d := range c.DifferenceDetails {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StatusUpdate is what the store of record returns after a verdict change.
type StatusUpdate struct {
	Status    Verdict
	UpdatedAt time.Time
}

type Project struct {
	ID          string
	Name        string
	Description *string
	FigmaURL    *string
	OwnerID     string
	CreatedAt   time.Time
}

type NewProject struct {
	Name        string
	Description *string
	FigmaURL    *string
}

func (p NewProject) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "project name is required"}
	}
	return nil
}

// Actor is the authenticated reviewer. It is resolved by the caller and passed
// explicitly into every operation that needs authorization.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// RequireActor fails with a PreconditionError when no actor is available.
func RequireActor(a *Actor) error {
	if a == nil || a.ID == "" {
		return &PreconditionError{Reason: "an authenticated actor is required"}
	}
	return nil
}

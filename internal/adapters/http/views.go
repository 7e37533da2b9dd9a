package httpadapter

import (
	"time"

	"diffreview/internal/classify"
	"diffreview/internal/domain"
	"diffreview/internal/history"
	"diffreview/internal/ports"
	"diffreview/internal/services/review"
	"diffreview/internal/verdict"
	"diffreview/internal/visual"
)

type projectView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	FigmaURL    *string   `json:"figma_url,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type classificationView struct {
	Profile     string `json:"profile"`
	Class       string `json:"class"`
	Description string `json:"description"`
}

type levelCountsView struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type analysisView struct {
	TotalPixels          int64   `json:"total_pixels"`
	DifferentPixels      int64   `json:"different_pixels"`
	DifferencePercentage float64 `json:"difference_percentage"`
}

type comparisonView struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	ProjectID         *string                   `json:"project_id,omitempty"`
	SimilarityScore   float64                   `json:"similarity_score"`
	Classification    *classificationView       `json:"classification,omitempty"`
	DifferencesCount  int                       `json:"differences_count"`
	LevelCounts       levelCountsView           `json:"level_counts"`
	DifferenceDetails []domain.DifferenceDetail `json:"difference_details"`
	Status            domain.Verdict            `json:"status"`
	Method            domain.ComparisonMethod   `json:"comparison_method,omitempty"`
	TargetURL         *string                   `json:"compare_url,omitempty"`
	Image1URL         string                    `json:"image1_url"`
	Image2URL         string                    `json:"image2_url"`
	ResultImageURL    string                    `json:"result_image_url,omitempty"`
	HeatmapImageURL   string                    `json:"heatmap_image_url,omitempty"`
	Analysis          *analysisView             `json:"analysis,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

type historyView struct {
	ProjectID  string           `json:"project_id,omitempty"`
	SelectedID string           `json:"selected_id,omitempty"`
	Entries    []comparisonView `json:"entries"`
}

type visualView struct {
	Mode             visual.Mode   `json:"mode"`
	Enlarged         visual.Target `json:"enlarged"`
	Blocked          bool          `json:"background_blocked"`
	HeatmapAvailable bool          `json:"heatmap_available"`
	DisplayURL       string        `json:"display_url,omitempty"`
	EnlargedURL      string        `json:"enlarged_url,omitempty"`
}

type sessionView struct {
	ID       string           `json:"id"`
	Project  *projectView     `json:"project,omitempty"`
	History  historyView      `json:"history"`
	Current  *comparisonView  `json:"current,omitempty"`
	Visual   visualView       `json:"visual"`
	InFlight bool             `json:"in_flight"`
	Allowed  []domain.Verdict `json:"allowed_verdicts"`
	Notice   string           `json:"notice,omitempty"`
}

type transitionView struct {
	ComparisonID string         `json:"comparison_id"`
	From         domain.Verdict `json:"from"`
	To           domain.Verdict `json:"to"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Changed      bool           `json:"changed"`
}

type verdictResponse struct {
	Transition transitionView `json:"transition"`
	Session    sessionView    `json:"session"`
}

type jobView struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	ProjectID    *string         `json:"project_id,omitempty"`
	Status       ports.JobStatus `json:"status"`
	ComparisonID *string         `json:"comparison_id,omitempty"`
	Error        *string         `json:"error,omitempty"`
	QueuedAt     time.Time       `json:"queued_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

func toProjectView(p domain.Project) projectView {
	return projectView{ID: p.ID, Name: p.Name, Description: p.Description, FigmaURL: p.FigmaURL, OwnerID: p.OwnerID, CreatedAt: p.CreatedAt}
}

func toComparisonView(c domain.Comparison, profile classify.Profile) comparisonView {
	counts := classify.LevelCounts(c.DifferenceDetails)
	v := comparisonView{
		ID:                c.ID,
		Title:             c.Title,
		ProjectID:         c.ProjectID,
		SimilarityScore:   c.SimilarityScore,
		DifferencesCount:  c.DifferencesCount,
		LevelCounts:       levelCountsView{High: counts.High, Medium: counts.Medium, Low: counts.Low},
		DifferenceDetails: c.DifferenceDetails,
		Status:            c.Status,
		Method:            c.Method,
		TargetURL:         c.TargetURL,
		Image1URL:         c.Images.Image1URL,
		Image2URL:         c.Images.Image2URL,
		ResultImageURL:    c.Artifacts.HighlightURL,
		HeatmapImageURL:   c.Artifacts.HeatmapURL,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if v.DifferenceDetails == nil {
		v.DifferenceDetails = []domain.DifferenceDetail{}
	}
	if res, err := profile.Classify(c.SimilarityScore); err == nil {
		v.Classification = &classificationView{Profile: profile.Name, Class: res.Class, Description: res.Description}
	}
	if c.Analysis != nil {
		v.Analysis = &analysisView{
			TotalPixels:          c.Analysis.TotalPixels,
			DifferentPixels:      c.Analysis.DifferentPixels,
			DifferencePercentage: c.Analysis.DifferencePercentage,
		}
	}
	return v
}

func toHistoryView(l history.List, profile classify.Profile) historyView {
	entries := l.Entries()
	out := historyView{ProjectID: l.ProjectID(), SelectedID: l.SelectedID(), Entries: make([]comparisonView, 0, len(entries))}
	for _, c := range entries {
		out.Entries = append(out.Entries, toComparisonView(c, profile))
	}
	return out
}

func toSessionView(v review.View, profile classify.Profile) sessionView {
	out := sessionView{
		ID:       v.ID,
		History:  toHistoryView(v.History, profile),
		InFlight: v.InFlight,
		Allowed:  v.Allowed,
		Notice:   v.Notice,
		Visual: visualView{
			Mode:             v.Visual.Mode,
			Enlarged:         v.Visual.Enlarged,
			Blocked:          v.Visual.Blocked,
			HeatmapAvailable: v.Visual.HeatmapAvailable,
		},
	}
	if out.Allowed == nil {
		out.Allowed = []domain.Verdict{}
	}
	if v.Project != nil {
		p := toProjectView(*v.Project)
		out.Project = &p
	}
	if v.Current != nil {
		c := toComparisonView(*v.Current, profile)
		out.Current = &c
		out.Visual.DisplayURL = visual.Source(*v.Current, visual.TargetPrimary, v.Visual.Mode)
		out.Visual.EnlargedURL = visual.Source(*v.Current, v.Visual.Enlarged, v.Visual.Mode)
	}
	return out
}

func toTransitionView(t verdict.Transition) transitionView {
	return transitionView{ComparisonID: t.ComparisonID, From: t.From, To: t.To, UpdatedAt: t.UpdatedAt, Changed: t.Changed}
}

func toJobView(j ports.CompareJob) jobView {
	return jobView{
		ID:           j.ID,
		Title:        j.Title,
		ProjectID:    j.ProjectID,
		Status:       j.Status,
		ComparisonID: j.ComparisonID,
		Error:        j.Error,
		QueuedAt:     j.QueuedAt,
		FinishedAt:   j.FinishedAt,
	}
}

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"diffreview/internal/domain"
)

// Client talks to the external image-comparison engine.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
}

// wire shapes; every field is optional until toComparison validates it.
type detailPayload struct {
	X             *int     `json:"x"`
	Y             *int     `json:"y"`
	Width         *int     `json:"width"`
	Height        *int     `json:"height"`
	Area          *int     `json:"area"`
	Level         string   `json:"level"`
	AvgDifference *float64 `json:"avg_difference"`
}

type analysisPayload struct {
	TotalPixels          int64   `json:"total_pixels"`
	DifferentPixels      int64   `json:"different_pixels"`
	DifferencePercentage float64 `json:"difference_percentage"`
}

type resultPayload struct {
	SimilarityScore   *float64         `json:"similarity_score"`
	DifferencesCount  *int             `json:"differences_count"`
	DifferenceDetails *[]detailPayload `json:"difference_details"`
	Status            string           `json:"status"`
	Image1URL         string           `json:"image1_url"`
	Image2URL         string           `json:"image2_url"`
	ResultImageURL    string           `json:"result_image_url"`
	HeatmapImageURL   string           `json:"heatmap_image_url"`
	ComparisonMethod  string           `json:"comparison_method"`
	Analysis          *analysisPayload `json:"analysis"`
}

type errorPayload struct {
	Detail string `json:"detail"`
}

// Analyze uploads the request to the engine and decodes its result. The
// returned comparison has no identity; the caller stores it.
func (c *Client) Analyze(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error) {
	body, contentType, err := encodeRequest(req)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ep errorPayload
		_ = json.Unmarshal(raw, &ep)
		return domain.Comparison{}, &domain.ComparisonRequestError{
			Message: ep.Detail,
			Err:     fmt.Errorf("analysis engine returned %d", resp.StatusCode),
		}
	}

	var rp resultPayload
	if err := json.Unmarshal(raw, &rp); err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Message: "analysis engine returned malformed JSON", Err: err}
	}
	cmp, err := rp.toComparison()
	if err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Message: "analysis engine returned an invalid result: " + err.Error(), Err: err}
	}
	return cmp, nil
}

func encodeRequest(req domain.CompareRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFile(w, "image1", req.Image1); err != nil {
		return nil, "", err
	}
	if req.Image2 != nil {
		if err := writeFile(w, "image2", req.Image2); err != nil {
			return nil, "", err
		}
	} else if err := w.WriteField("compare_url", strings.TrimSpace(req.TemplateURL)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, img *domain.ImageUpload) error {
	if img == nil {
		return fmt.Errorf("%s is missing", field)
	}
	part, err := w.CreateFormFile(field, img.Filename)
	if err != nil {
		return err
	}
	_, err = part.Write(img.Data)
	return err
}

// toComparison validates the payload and applies the defaulting rules once.
func (p resultPayload) toComparison() (domain.Comparison, error) {
	if p.SimilarityScore == nil {
		return domain.Comparison{}, &domain.ValidationError{Field: "similarity_score", Reason: "missing"}
	}
	status, err := domain.NormalizeVerdict(p.Status)
	if err != nil {
		return domain.Comparison{}, err
	}
	c := domain.Comparison{
		SimilarityScore: *p.SimilarityScore,
		Status:          status,
		Method:          domain.ComparisonMethod(p.ComparisonMethod),
		Images:          domain.ImageRefs{Image1URL: p.Image1URL, Image2URL: p.Image2URL},
		Artifacts:       domain.Artifacts{HighlightURL: p.ResultImageURL, HeatmapURL: p.HeatmapImageURL},
	}
	if p.DifferenceDetails != nil {
		c.DifferenceDetails = make([]domain.DifferenceDetail, 0, len(*p.DifferenceDetails))
		for _, d := range *p.DifferenceDetails {
			if d.X == nil || d.Y == nil || d.Width == nil || d.Height == nil {
				return domain.Comparison{}, &domain.ValidationError{Field: "difference_details", Reason: "region without geometry"}
			}
			dd := domain.DifferenceDetail{X: *d.X, Y: *d.Y, Width: *d.Width, Height: *d.Height, Level: domain.Level(d.Level)}
			if d.Area != nil {
				dd.Area = *d.Area
			} else {
				dd.Area = dd.Width * dd.Height
			}
			if d.AvgDifference != nil {
				dd.AvgDifference = *d.AvgDifference
			}
			c.DifferenceDetails = append(c.DifferenceDetails, dd)
		}
	}
	switch {
	case p.DifferencesCount != nil:
		c.DifferencesCount = *p.DifferencesCount
	case c.DifferenceDetails != nil:
		c.DifferencesCount = len(c.DifferenceDetails)
	}
	if p.Analysis != nil {
		c.Analysis = &domain.Analysis{
			TotalPixels:          p.Analysis.TotalPixels,
			DifferentPixels:      p.Analysis.DifferentPixels,
			DifferencePercentage: p.Analysis.DifferencePercentage,
		}
	}
	return c, c.Validate()
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diffreview/internal/domain"
)

const comparisonColumns = `
	id, title, project_id, owner_id, similarity_score, differences_count,
	difference_details, status, method, target_url, image1_url, image2_url,
	result_image_url, heatmap_image_url, total_pixels, different_pixels,
	difference_percentage, created_at, updated_at`

// InsertComparison stores an analysed comparison and assigns its id.
func (db *DB) InsertComparison(ctx context.Context, c domain.Comparison) (domain.Comparison, error) {
	if err := c.Validate(); err != nil {
		return domain.Comparison{}, err
	}
	var details []byte
	if c.DifferenceDetails != nil {
		b, err := json.Marshal(c.DifferenceDetails)
		if err != nil {
			return domain.Comparison{}, fmt.Errorf("encode difference details: %w", err)
		}
		details = b
	}
	var total, different *int64
	var pct *float64
	if c.Analysis != nil {
		total, different, pct = &c.Analysis.TotalPixels, &c.Analysis.DifferentPixels, &c.Analysis.DifferencePercentage
	}
	if c.Method == "" {
		c.Method = domain.MethodUpload
	}

	row := db.Pool.QueryRow(ctx, `
		INSERT INTO comparisons (
			id, title, project_id, owner_id, similarity_score, differences_count,
			difference_details, status, method, target_url, image1_url, image2_url,
			result_image_url, heatmap_image_url, total_pixels, different_pixels,
			difference_percentage
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING `+comparisonColumns,
		uuid.NewString(), c.Title, c.ProjectID, c.OwnerID, c.SimilarityScore, c.DifferencesCount,
		details, string(c.Status), string(c.Method), c.TargetURL, c.Images.Image1URL, c.Images.Image2URL,
		c.Artifacts.HighlightURL, c.Artifacts.HeatmapURL, total, different, pct,
	)
	return scanComparison(row)
}

func (db *DB) GetComparison(ctx context.Context, id string) (domain.Comparison, error) {
	c, err := scanComparison(db.Pool.QueryRow(ctx, `SELECT `+comparisonColumns+` FROM comparisons WHERE id = $1`, id))
	if isNoRows(err) {
		return domain.Comparison{}, domain.ErrNotFound
	}
	return c, err
}

// UpdateStatus persists a verdict and returns the stored status and time.
func (db *DB) UpdateStatus(ctx context.Context, comparisonID string, status domain.Verdict, actorID string) (domain.StatusUpdate, error) {
	var raw string
	var at time.Time
	err := db.Pool.QueryRow(ctx, `
		UPDATE comparisons SET status = $2, updated_by = $3, updated_at = now()
		WHERE id = $1
		RETURNING status, updated_at
	`, comparisonID, string(status), actorID).Scan(&raw, &at)
	if isNoRows(err) {
		return domain.StatusUpdate{}, &domain.StatusUpdateError{Message: "comparison not found", Err: domain.ErrNotFound}
	}
	if err != nil {
		return domain.StatusUpdate{}, &domain.StatusUpdateError{Err: err}
	}
	v, err := domain.NormalizeVerdict(raw)
	if err != nil {
		return domain.StatusUpdate{}, &domain.StatusUpdateError{Err: err}
	}
	return domain.StatusUpdate{Status: v, UpdatedAt: at}, nil
}

// ListProjectComparisons returns the project's comparisons, most recent first.
func (db *DB) ListProjectComparisons(ctx context.Context, projectID string) ([]domain.Comparison, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+comparisonColumns+` FROM comparisons
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comparison{}
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListOwnerComparisons returns every comparison ownerID created, most recent first.
func (db *DB) ListOwnerComparisons(ctx context.Context, ownerID string) ([]domain.Comparison, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+comparisonColumns+` FROM comparisons
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comparison{}
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) DeleteComparison(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM comparisons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanComparison(row pgx.Row) (domain.Comparison, error) {
	var (
		c                domain.Comparison
		details          []byte
		status, method   string
		total, different *int64
		pct              *float64
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.ProjectID, &c.OwnerID, &c.SimilarityScore, &c.DifferencesCount,
		&details, &status, &method, &c.TargetURL, &c.Images.Image1URL, &c.Images.Image2URL,
		&c.Artifacts.HighlightURL, &c.Artifacts.HeatmapURL, &total, &different,
		&pct, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Comparison{}, err
	}
	if details != nil {
		if err := json.Unmarshal(details, &c.DifferenceDetails); err != nil {
			return domain.Comparison{}, fmt.Errorf("decode difference details for %s: %w", c.ID, err)
		}
	}
	if c.Status, err = domain.NormalizeVerdict(status); err != nil {
		return domain.Comparison{}, err
	}
	c.Method = domain.ComparisonMethod(method)
	if total != nil || different != nil || pct != nil {
		c.Analysis = &domain.Analysis{}
		if total != nil {
			c.Analysis.TotalPixels = *total
		}
		if different != nil {
			c.Analysis.DifferentPixels = *different
		}
		if pct != nil {
			c.Analysis.DifferencePercentage = *pct
		}
	}
	return c, nil
}

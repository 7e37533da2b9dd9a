package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diffreview/internal/domain"
)

func (db *DB) CreateProject(ctx context.Context, p domain.NewProject, ownerID string) (domain.Project, error) {
	return scanProject(db.Pool.QueryRow(ctx, `
		INSERT INTO projects (id, name, description, figma_url, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, figma_url, owner_id, created_at
	`, uuid.NewString(), p.Name, p.Description, p.FigmaURL, ownerID))
}

func (db *DB) ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, description, figma_url, owner_id, created_at
		FROM projects WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) GetProject(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(db.Pool.QueryRow(ctx, `
		SELECT id, name, description, figma_url, owner_id, created_at
		FROM projects WHERE id = $1
	`, id))
	if isNoRows(err) {
		return domain.Project{}, domain.ErrNotFound
	}
	return p, err
}

func (db *DB) UpdateProject(ctx context.Context, id string, p domain.NewProject) (domain.Project, error) {
	out, err := scanProject(db.Pool.QueryRow(ctx, `
		UPDATE projects SET name = $2, description = $3, figma_url = $4
		WHERE id = $1
		RETURNING id, name, description, figma_url, owner_id, created_at
	`, id, p.Name, p.Description, p.FigmaURL))
	if isNoRows(err) {
		return domain.Project{}, domain.ErrNotFound
	}
	return out, err
}

// DeleteProject detaches the project's comparisons and removes it.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE comparisons SET project_id = NULL WHERE project_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.FigmaURL, &p.OwnerID, &p.CreatedAt)
	return p, err
}

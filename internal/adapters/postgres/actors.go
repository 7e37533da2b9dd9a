package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"diffreview/internal/domain"
)

// Resolve implements ports.ActorResolver against the users table.
func (db *DB) Resolve(ctx context.Context, actorID string) (domain.Actor, bool, error) {
	var a domain.Actor
	err := db.Pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, actorID).Scan(&a.ID, &a.Name, &a.Email)
	if isNoRows(err) {
		return domain.Actor{}, false, nil
	}
	if err != nil {
		return domain.Actor{}, false, err
	}
	return a, true, nil
}

// CreateUser registers a reviewer and returns it with its new id.
func (db *DB) CreateUser(ctx context.Context, name, email string) (domain.Actor, error) {
	a := domain.Actor{ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: strings.ToLower(strings.TrimSpace(email))}
	_, err := db.Pool.Exec(ctx, `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`, a.ID, a.Name, a.Email)
	return a, err
}

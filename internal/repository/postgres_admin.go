package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresAdminRepo allow-list lookup in tbl_admin. Callers pass every
// spelling of a matricola they want checked (the letter may appear at
// either end), one query covers all of them.
type PostgresAdminRepo struct {
	db *sql.DB
}

func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

var _ AdminRepository = (*PostgresAdminRepo)(nil)

func (r *PostgresAdminRepo) IsAdmin(ctx context.Context, matricole ...string) (bool, error) {
	if len(matricole) == 0 {
		return false, nil
	}
	var found bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tbl_admin WHERE matricola = ANY($1))`,
		pq.Array(matricole)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return found, nil
}

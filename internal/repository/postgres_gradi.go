package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caserma-alloggi/internal/domain"
)

// PostgresGradiRepo read-only access to the gradi reference table.
type PostgresGradiRepo struct {
	db *sql.DB
}

func NewPostgresGradiRepo(db *sql.DB) *PostgresGradiRepo {
	return &PostgresGradiRepo{db: db}
}

var _ GradiRepository = (*PostgresGradiRepo)(nil)

func (r *PostgresGradiRepo) ListGradi(ctx context.Context, idCategoria int) ([]*domain.Grado, error) {
	query := `
		SELECT g.id, g.codice, g.descrizione, g.id_categoria, g.ordinamento,
		       c.id, c.codice, c.descrizione
		FROM gradi g
		JOIN categorie c ON c.id = g.id_categoria`
	args := []any{}
	if idCategoria > 0 {
		query += ` WHERE g.id_categoria = $1`
		args = append(args, idCategoria)
	}
	query += ` ORDER BY g.ordinamento ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list gradi: %w", err)
	}
	defer rows.Close()

	var gradi []*domain.Grado
	for rows.Next() {
		var g domain.Grado
		var c domain.Categoria
		if err := rows.Scan(&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento,
			&c.ID, &c.Codice, &c.Descrizione); err != nil {
			return nil, fmt.Errorf("failed to scan grado: %w", err)
		}
		g.Categoria = &c
		gradi = append(gradi, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gradi: %w", err)
	}

	return gradi, nil
}

func (r *PostgresGradiRepo) GetGrado(ctx context.Context, id int) (*domain.Grado, error) {
	var g domain.Grado
	var c domain.Categoria
	err := r.db.QueryRowContext(ctx,
		`SELECT g.id, g.codice, g.descrizione, g.id_categoria, g.ordinamento,
		        c.id, c.codice, c.descrizione
		 FROM gradi g
		 JOIN categorie c ON c.id = g.id_categoria
		 WHERE g.id = $1`, id).
		Scan(&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento,
			&c.ID, &c.Codice, &c.Descrizione)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Grado non trovato")
		}
		return nil, fmt.Errorf("failed to get grado: %w", err)
	}
	g.Categoria = &c
	return &g, nil
}

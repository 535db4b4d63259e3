package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caserma-alloggi/internal/domain"
)

// PostgresCategorieRepo read-only access to the categorie reference table.
type PostgresCategorieRepo struct {
	db *sql.DB
}

func NewPostgresCategorieRepo(db *sql.DB) *PostgresCategorieRepo {
	return &PostgresCategorieRepo{db: db}
}

var _ CategorieRepository = (*PostgresCategorieRepo)(nil)

func (r *PostgresCategorieRepo) ListCategorie(ctx context.Context) ([]*domain.Categoria, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, codice, descrizione FROM categorie ORDER BY codice ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categorie: %w", err)
	}
	defer rows.Close()

	var categorie []*domain.Categoria
	byID := map[int]*domain.Categoria{}
	for rows.Next() {
		var c domain.Categoria
		if err := rows.Scan(&c.ID, &c.Codice, &c.Descrizione); err != nil {
			return nil, fmt.Errorf("failed to scan categoria: %w", err)
		}
		categorie = append(categorie, &c)
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categorie: %w", err)
	}

	gradi, err := r.db.QueryContext(ctx,
		`SELECT id, codice, descrizione, id_categoria, ordinamento
		 FROM gradi ORDER BY ordinamento ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gradi for categorie: %w", err)
	}
	defer gradi.Close()

	for gradi.Next() {
		var g domain.Grado
		if err := gradi.Scan(&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento); err != nil {
			return nil, fmt.Errorf("failed to scan grado: %w", err)
		}
		if c, ok := byID[g.IDCategoria]; ok {
			c.Gradi = append(c.Gradi, &g)
		}
	}
	if err := gradi.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gradi: %w", err)
	}

	return categorie, nil
}

func (r *PostgresCategorieRepo) GetCategoria(ctx context.Context, id int) (*domain.Categoria, error) {
	var c domain.Categoria
	err := r.db.QueryRowContext(ctx,
		`SELECT id, codice, descrizione FROM categorie WHERE id = $1`, id).
		Scan(&c.ID, &c.Codice, &c.Descrizione)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Categoria non trovata")
		}
		return nil, fmt.Errorf("failed to get categoria: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, codice, descrizione, id_categoria, ordinamento
		 FROM gradi WHERE id_categoria = $1 ORDER BY ordinamento ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list gradi for categoria: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g domain.Grado
		if err := rows.Scan(&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento); err != nil {
			return nil, fmt.Errorf("failed to scan grado: %w", err)
		}
		c.Gradi = append(c.Gradi, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gradi: %w", err)
	}

	return &c, nil
}

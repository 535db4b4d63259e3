package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caserma-alloggi/internal/domain"
)

// PostgresStoricoRepo read side of the assignment history. Records are
// written only by AssegnazioniRepository.Close; here they are queried,
// filtered and purged.
type PostgresStoricoRepo struct {
	db *sql.DB
}

func NewPostgresStoricoRepo(db *sql.DB) *PostgresStoricoRepo {
	return &PostgresStoricoRepo{db: db}
}

var _ StoricoRepository = (*PostgresStoricoRepo)(nil)

const storicoColumns = `
	id, matricola_alloggiato, grado, cognome, nome, id_camera,
	numero_camera, edificio, piano, data_entrata, data_uscita,
	note, inserito_da, created_at`

func scanStorico(scanner interface{ Scan(...any) error }) (*domain.StoricoAssegnazione, error) {
	var s domain.StoricoAssegnazione
	var edificio, note, inseritoDa sql.NullString
	var piano sql.NullInt64
	err := scanner.Scan(
		&s.ID, &s.MatricolaAlloggiato, &s.Grado, &s.Cognome, &s.Nome, &s.IDCamera,
		&s.NumeroCamera, &edificio, &piano, &s.DataEntrata, &s.DataUscita,
		&note, &inseritoDa, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Edificio = edificio.String
	s.Note = note.String
	s.InseritoDa = inseritoDa.String
	if piano.Valid {
		p := int(piano.Int64)
		s.Piano = &p
	}
	return &s, nil
}

func (r *PostgresStoricoRepo) ListStorico(ctx context.Context, f StoricoFilter) ([]*domain.StoricoAssegnazione, error) {
	query := `SELECT ` + storicoColumns + ` FROM storico_assegnazioni WHERE 1=1`
	args := []any{}
	if f.Matricola != "" {
		args = append(args, f.Matricola)
		query += fmt.Sprintf(" AND matricola_alloggiato = $%d", len(args))
	}
	if f.IDCamera != nil {
		args = append(args, *f.IDCamera)
		query += fmt.Sprintf(" AND id_camera = $%d", len(args))
	}
	if f.NumeroCamera != "" {
		args = append(args, f.NumeroCamera)
		query += fmt.Sprintf(" AND numero_camera = $%d", len(args))
	}
	if f.Grado != "" {
		args = append(args, "%"+f.Grado+"%")
		query += fmt.Sprintf(" AND grado ILIKE $%d", len(args))
	}
	if f.Edificio != "" {
		args = append(args, f.Edificio)
		query += fmt.Sprintf(" AND edificio = $%d", len(args))
	}
	if f.DataEntrataDa != nil {
		args = append(args, *f.DataEntrataDa)
		query += fmt.Sprintf(" AND data_entrata >= $%d", len(args))
	}
	if f.DataEntrataA != nil {
		args = append(args, *f.DataEntrataA)
		query += fmt.Sprintf(" AND data_entrata <= $%d", len(args))
	}
	if f.DataUscitaDa != nil {
		args = append(args, *f.DataUscitaDa)
		query += fmt.Sprintf(" AND data_uscita >= $%d", len(args))
	}
	if f.DataUscitaA != nil {
		args = append(args, *f.DataUscitaA)
		query += fmt.Sprintf(" AND data_uscita <= $%d", len(args))
	}
	query += ` ORDER BY data_uscita DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list storico: %w", err)
	}
	defer rows.Close()

	out := []*domain.StoricoAssegnazione{}
	for rows.Next() {
		s, err := scanStorico(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storico: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresStoricoRepo) GetStorico(ctx context.Context, id int) (*domain.StoricoAssegnazione, error) {
	s, err := scanStorico(r.db.QueryRowContext(ctx,
		`SELECT `+storicoColumns+` FROM storico_assegnazioni WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Record non trovato nello storico")
		}
		return nil, fmt.Errorf("failed to get storico: %w", err)
	}
	return s, nil
}

func (r *PostgresStoricoRepo) DeleteStorico(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM storico_assegnazioni WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete storico: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("Record non trovato nello storico")
	}
	return nil
}

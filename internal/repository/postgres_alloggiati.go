package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caserma-alloggi/internal/domain"
)

// PostgresAlloggiatiRepo resident records with their rank chain and the
// current room, when one is assigned.
type PostgresAlloggiatiRepo struct {
	db *sql.DB
}

func NewPostgresAlloggiatiRepo(db *sql.DB) *PostgresAlloggiatiRepo {
	return &PostgresAlloggiatiRepo{db: db}
}

var _ AlloggiatiRepository = (*PostgresAlloggiatiRepo)(nil)

const alloggiatoColumns = `
	al.matricola, al.id_grado, al.cognome, al.nome, al.telefono,
	al.codice_reparto, al.descrizione_reparto,
	g.id, g.codice, g.descrizione, g.id_categoria, g.ordinamento,
	cat.id, cat.codice, cat.descrizione`

func scanAlloggiato(scanner interface{ Scan(...any) error }) (*domain.Alloggiato, error) {
	var al domain.Alloggiato
	var g domain.Grado
	var cat domain.Categoria
	var telefono, codReparto, descReparto sql.NullString
	err := scanner.Scan(
		&al.Matricola, &al.IDGrado, &al.Cognome, &al.Nome, &telefono,
		&codReparto, &descReparto,
		&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento,
		&cat.ID, &cat.Codice, &cat.Descrizione,
	)
	if err != nil {
		return nil, err
	}
	al.Telefono = telefono.String
	al.CodiceReparto = codReparto.String
	al.DescrizioneReparto = descReparto.String
	g.Categoria = &cat
	al.Grado = &g
	return &al, nil
}

func (r *PostgresAlloggiatiRepo) ListAlloggiati(ctx context.Context, f AlloggiatiFilter) ([]*domain.AlloggiatoConCamera, error) {
	query := `
		SELECT ` + alloggiatoColumns + `,
		       cam.id, cam.numero_camera, cam.edificio, cam.piano, cam.ala
		FROM alloggiati al
		JOIN gradi g ON g.id = al.id_grado
		JOIN categorie cat ON cat.id = g.id_categoria
		LEFT JOIN assegnazioni ass
		  ON ass.matricola_alloggiato = al.matricola AND ass.data_uscita IS NULL
		LEFT JOIN camere cam ON cam.id = ass.id_camera
		WHERE 1=1`
	args := []any{}
	if f.IDGrado != nil {
		args = append(args, *f.IDGrado)
		query += fmt.Sprintf(" AND al.id_grado = $%d", len(args))
	}
	if f.IDCategoria != nil {
		args = append(args, *f.IDCategoria)
		query += fmt.Sprintf(" AND g.id_categoria = $%d", len(args))
	}
	if f.Cognome != "" {
		args = append(args, "%"+f.Cognome+"%")
		query += fmt.Sprintf(" AND al.cognome ILIKE $%d", len(args))
	}
	if f.Reparto != "" {
		args = append(args, "%"+f.Reparto+"%")
		query += fmt.Sprintf(" AND al.codice_reparto ILIKE $%d", len(args))
	}
	if f.ConCamera {
		query += " AND ass.id IS NOT NULL"
	}
	if f.SenzaCamera {
		query += " AND ass.id IS NULL"
	}
	query += ` ORDER BY al.cognome ASC, al.nome ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alloggiati: %w", err)
	}
	defer rows.Close()

	var result []*domain.AlloggiatoConCamera
	for rows.Next() {
		var al domain.Alloggiato
		var g domain.Grado
		var cat domain.Categoria
		var telefono, codReparto, descReparto sql.NullString
		var camID, camPiano sql.NullInt64
		var camNumero, camEdificio, camAla sql.NullString
		if err := rows.Scan(
			&al.Matricola, &al.IDGrado, &al.Cognome, &al.Nome, &telefono,
			&codReparto, &descReparto,
			&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento,
			&cat.ID, &cat.Codice, &cat.Descrizione,
			&camID, &camNumero, &camEdificio, &camPiano, &camAla,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alloggiato: %w", err)
		}
		al.Telefono = telefono.String
		al.CodiceReparto = codReparto.String
		al.DescrizioneReparto = descReparto.String
		g.Categoria = &cat
		al.Grado = &g

		ac := &domain.AlloggiatoConCamera{Alloggiato: al}
		if camID.Valid {
			ac.CameraCorrente = &domain.Camera{
				ID:           int(camID.Int64),
				NumeroCamera: camNumero.String,
				Edificio:     camEdificio.String,
				Piano:        int(camPiano.Int64),
				Ala:          camAla.String,
			}
			ac.HaCamera = true
		}
		result = append(result, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alloggiati: %w", err)
	}

	return result, nil
}

func (r *PostgresAlloggiatiRepo) GetAlloggiato(ctx context.Context, matricola string) (*domain.Alloggiato, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+alloggiatoColumns+`
		FROM alloggiati al
		JOIN gradi g ON g.id = al.id_grado
		JOIN categorie cat ON cat.id = g.id_categoria
		WHERE al.matricola = $1`, matricola)
	al, err := scanAlloggiato(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Alloggiato non trovato")
		}
		return nil, fmt.Errorf("failed to get alloggiato: %w", err)
	}
	return al, nil
}

func (r *PostgresAlloggiatiRepo) GetAlloggiatoConCamera(ctx context.Context, matricola string) (*domain.AlloggiatoConCamera, error) {
	al, err := r.GetAlloggiato(ctx, matricola)
	if err != nil {
		return nil, err
	}

	ac := &domain.AlloggiatoConCamera{Alloggiato: *al}
	var camID, camPiano int
	var camNumero, camEdificio string
	var camAla sql.NullString
	err = r.db.QueryRowContext(ctx, `
		SELECT cam.id, cam.numero_camera, cam.edificio, cam.piano, cam.ala
		FROM assegnazioni ass
		JOIN camere cam ON cam.id = ass.id_camera
		WHERE ass.matricola_alloggiato = $1 AND ass.data_uscita IS NULL`,
		matricola).Scan(&camID, &camNumero, &camEdificio, &camPiano, &camAla)
	switch {
	case err == sql.ErrNoRows:
		// nessuna camera corrente
	case err != nil:
		return nil, fmt.Errorf("failed to get camera corrente: %w", err)
	default:
		ac.CameraCorrente = &domain.Camera{
			ID:           camID,
			NumeroCamera: camNumero,
			Edificio:     camEdificio,
			Piano:        camPiano,
			Ala:          camAla.String,
		}
		ac.HaCamera = true
	}
	return ac, nil
}

func (r *PostgresAlloggiatiRepo) CreateAlloggiato(ctx context.Context, a *domain.Alloggiato) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alloggiati (matricola, id_grado, cognome, nome, telefono,
		                        codice_reparto, descrizione_reparto)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.Matricola, a.IDGrado, a.Cognome, a.Nome, nullString(a.Telefono),
		nullString(a.CodiceReparto), nullString(a.DescrizioneReparto),
	)
	if err != nil {
		return fmt.Errorf("failed to create alloggiato: %w", err)
	}
	return nil
}

func (r *PostgresAlloggiatiRepo) UpdateAlloggiato(ctx context.Context, a *domain.Alloggiato) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alloggiati
		SET id_grado = $1, cognome = $2, nome = $3, telefono = $4,
		    codice_reparto = $5, descrizione_reparto = $6, updated_at = NOW()
		WHERE matricola = $7`,
		a.IDGrado, a.Cognome, a.Nome, nullString(a.Telefono),
		nullString(a.CodiceReparto), nullString(a.DescrizioneReparto),
		a.Matricola,
	)
	if err != nil {
		return fmt.Errorf("failed to update alloggiato: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("Alloggiato non trovato")
	}
	return nil
}

func (r *PostgresAlloggiatiRepo) DeleteAlloggiato(ctx context.Context, matricola string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT matricola FROM alloggiati WHERE matricola = $1 FOR UPDATE`,
		matricola).Scan(&locked)
	if err == sql.ErrNoRows {
		return domain.NewNotFoundError("Alloggiato non trovato")
	}
	if err != nil {
		return fmt.Errorf("failed to lock alloggiato: %w", err)
	}

	var attive int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assegnazioni WHERE matricola_alloggiato = $1 AND data_uscita IS NULL`,
		matricola).Scan(&attive); err != nil {
		return fmt.Errorf("failed to count active assegnazioni: %w", err)
	}
	if attive > 0 {
		return &domain.ConflictError{Reason: "Impossibile eliminare: l'alloggiato è assegnato a una camera. Rimuoverlo prima dalla camera."}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM alloggiati WHERE matricola = $1`, matricola); err != nil {
		return fmt.Errorf("failed to delete alloggiato: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

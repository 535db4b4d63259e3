package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caserma-alloggi/internal/domain"

	"github.com/lib/pq"
)

// PostgresCamereRepo rooms with live occupancy projections.
type PostgresCamereRepo struct {
	db *sql.DB
}

func NewPostgresCamereRepo(db *sql.DB) *PostgresCamereRepo {
	return &PostgresCamereRepo{db: db}
}

var _ CamereRepository = (*PostgresCamereRepo)(nil)

const cameraColumns = `
	cam.id, cam.numero_camera, cam.piano, cam.ala, cam.edificio,
	cam.nr_posti, cam.genere, cam.id_categoria, cam.note,
	cam.agibile, cam.manutenzione,
	cat.id, cat.codice, cat.descrizione`

func scanCamera(scanner interface{ Scan(...any) error }) (*domain.Camera, error) {
	var c domain.Camera
	var cat domain.Categoria
	var ala, note sql.NullString
	err := scanner.Scan(
		&c.ID, &c.NumeroCamera, &c.Piano, &ala, &c.Edificio,
		&c.NrPosti, &c.Genere, &c.IDCategoria, &note,
		&c.Agibile, &c.Manutenzione,
		&cat.ID, &cat.Codice, &cat.Descrizione,
	)
	if err != nil {
		return nil, err
	}
	c.Ala = ala.String
	c.Note = note.String
	c.Categoria = &cat
	return &c, nil
}

func (r *PostgresCamereRepo) ListCamere(ctx context.Context, f CamereFilter) ([]*domain.CameraConDisponibilita, error) {
	query := `
		SELECT ` + cameraColumns + `
		FROM camere cam
		JOIN categorie cat ON cat.id = cam.id_categoria
		WHERE 1=1`
	args := []any{}
	if f.Edificio != "" {
		args = append(args, f.Edificio)
		query += fmt.Sprintf(" AND cam.edificio = $%d", len(args))
	}
	if f.Piano != nil {
		args = append(args, *f.Piano)
		query += fmt.Sprintf(" AND cam.piano = $%d", len(args))
	}
	if f.Genere != "" {
		args = append(args, f.Genere)
		query += fmt.Sprintf(" AND cam.genere = $%d", len(args))
	}
	if f.IDCategoria != nil {
		args = append(args, *f.IDCategoria)
		query += fmt.Sprintf(" AND cam.id_categoria = $%d", len(args))
	}
	query += ` ORDER BY cam.edificio ASC, cam.piano ASC, cam.numero_camera ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list camere: %w", err)
	}
	defer rows.Close()

	var camere []*domain.CameraConDisponibilita
	byID := map[int]*domain.CameraConDisponibilita{}
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cd := &domain.CameraConDisponibilita{Camera: *c}
		camere = append(camere, cd)
		byID[c.ID] = cd
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate camere: %w", err)
	}

	if err := r.attachAssegnazioniAttive(ctx, byID); err != nil {
		return nil, err
	}

	for _, cd := range camere {
		cd.PostiOccupati = len(cd.Assegnazioni)
		cd.PostiLiberi = cd.NrPosti - cd.PostiOccupati
		cd.Stato = domain.StatoOccupazione(cd.PostiOccupati, cd.NrPosti)
	}

	if f.SoloDisponibili {
		disponibili := camere[:0]
		for _, cd := range camere {
			if cd.PostiLiberi > 0 {
				disponibili = append(disponibili, cd)
			}
		}
		camere = disponibili
	}

	return camere, nil
}

// attachAssegnazioniAttive eager-loads the active assignments (with
// alloggiato, grado and categoria) for every camera in the map.
func (r *PostgresCamereRepo) attachAssegnazioniAttive(ctx context.Context, byID map[int]*domain.CameraConDisponibilita) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, int64(id))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ass.id, ass.matricola_alloggiato, ass.id_camera,
		       ass.data_assegnazione, ass.note,
		       al.matricola, al.id_grado, al.cognome, al.nome, al.telefono,
		       g.id, g.codice, g.descrizione, g.id_categoria, g.ordinamento,
		       cat.id, cat.codice, cat.descrizione
		FROM assegnazioni ass
		JOIN alloggiati al ON al.matricola = ass.matricola_alloggiato
		JOIN gradi g ON g.id = al.id_grado
		JOIN categorie cat ON cat.id = g.id_categoria
		WHERE ass.data_uscita IS NULL AND ass.id_camera = ANY($1)
		ORDER BY ass.data_assegnazione ASC`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load active assegnazioni: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Assegnazione
		var al domain.Alloggiato
		var g domain.Grado
		var cat domain.Categoria
		var note, telefono sql.NullString
		if err := rows.Scan(
			&a.ID, &a.MatricolaAlloggiato, &a.IDCamera,
			&a.DataAssegnazione, &note,
			&al.Matricola, &al.IDGrado, &al.Cognome, &al.Nome, &telefono,
			&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento,
			&cat.ID, &cat.Codice, &cat.Descrizione,
		); err != nil {
			return fmt.Errorf("failed to scan assegnazione attiva: %w", err)
		}
		a.Note = note.String
		al.Telefono = telefono.String
		g.Categoria = &cat
		al.Grado = &g
		a.Alloggiato = &al
		if cd, ok := byID[a.IDCamera]; ok {
			cd.Assegnazioni = append(cd.Assegnazioni, &a)
		}
	}
	return rows.Err()
}

func (r *PostgresCamereRepo) GetCamera(ctx context.Context, id int) (*domain.Camera, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cameraColumns+`
		FROM camere cam
		JOIN categorie cat ON cat.id = cam.id_categoria
		WHERE cam.id = $1`, id)
	c, err := scanCamera(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Camera non trovata")
		}
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	return c, nil
}

func (r *PostgresCamereRepo) GetCameraByNumero(ctx context.Context, numero string) (*domain.Camera, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cameraColumns+`
		FROM camere cam
		JOIN categorie cat ON cat.id = cam.id_categoria
		WHERE cam.numero_camera = $1`, numero)
	c, err := scanCamera(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Camera non trovata")
		}
		return nil, fmt.Errorf("failed to get camera by numero: %w", err)
	}
	return c, nil
}

func (r *PostgresCamereRepo) GetOccupazione(ctx context.Context, id int) (*domain.CameraOccupazione, error) {
	c, err := r.GetCamera(ctx, id)
	if err != nil {
		return nil, err
	}

	byID := map[int]*domain.CameraConDisponibilita{
		c.ID: {Camera: *c},
	}
	if err := r.attachAssegnazioniAttive(ctx, byID); err != nil {
		return nil, err
	}
	occupanti := byID[c.ID].Assegnazioni

	occ := &domain.CameraOccupazione{
		Camera:        c,
		PostiTotali:   c.NrPosti,
		PostiOccupati: len(occupanti),
		PostiLiberi:   c.NrPosti - len(occupanti),
		Stato:         domain.StatoOccupazione(len(occupanti), c.NrPosti),
		Alloggiati:    occupanti,
	}
	return occ, nil
}

func (r *PostgresCamereRepo) CreateCamera(ctx context.Context, c *domain.Camera) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO camere (numero_camera, piano, ala, edificio, nr_posti,
		                    genere, id_categoria, note, agibile, manutenzione)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		c.NumeroCamera, c.Piano, nullString(c.Ala), c.Edificio, c.NrPosti,
		c.Genere, c.IDCategoria, nullString(c.Note), c.Agibile, c.Manutenzione,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create camera: %w", err)
	}
	return id, nil
}

// UpdateCamera locks the room row before checking that nr_posti still
// covers the current occupants, so the check cannot race with a
// concurrent assign (which takes the same lock).
func (r *PostgresCamereRepo) UpdateCamera(ctx context.Context, c *domain.Camera) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM camere WHERE id = $1 FOR UPDATE`, c.ID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.NewNotFoundError("Camera non trovata")
		}
		return fmt.Errorf("failed to lock camera: %w", err)
	}

	var occupati int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assegnazioni WHERE id_camera = $1 AND data_uscita IS NULL`,
		c.ID).Scan(&occupati)
	if err != nil {
		return fmt.Errorf("failed to count active assegnazioni: %w", err)
	}
	if c.NrPosti < occupati {
		return domain.NewValidationError(
			fmt.Sprintf("Impossibile ridurre i posti a %d. Ci sono %d alloggiati assegnati", c.NrPosti, occupati))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE camere
		SET numero_camera = $1, piano = $2, ala = $3, edificio = $4,
		    nr_posti = $5, genere = $6, id_categoria = $7, note = $8,
		    agibile = $9, manutenzione = $10, updated_at = NOW()
		WHERE id = $11`,
		c.NumeroCamera, c.Piano, nullString(c.Ala), c.Edificio,
		c.NrPosti, c.Genere, c.IDCategoria, nullString(c.Note),
		c.Agibile, c.Manutenzione, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update camera: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit camera update: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

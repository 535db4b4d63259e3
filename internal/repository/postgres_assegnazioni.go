package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"caserma-alloggi/internal/domain"
)

// PostgresAssegnazioniRepo owns the allocation state machine. Every
// mutation runs in one transaction and takes FOR UPDATE locks on the
// alloggiato and camera rows it touches, so the exclusivity and capacity
// checks cannot race with a concurrent assign or move.
type PostgresAssegnazioniRepo struct {
	db *sql.DB
}

func NewPostgresAssegnazioniRepo(db *sql.DB) *PostgresAssegnazioniRepo {
	return &PostgresAssegnazioniRepo{db: db}
}

var _ AssegnazioniRepository = (*PostgresAssegnazioniRepo)(nil)

const assegnazioneColumns = `
	ass.id, ass.matricola_alloggiato, ass.id_camera,
	ass.data_assegnazione, ass.data_uscita, ass.note,
	ass.created_at, ass.updated_at`

func scanAssegnazione(scanner interface{ Scan(...any) error }) (*domain.Assegnazione, error) {
	var a domain.Assegnazione
	var al domain.Alloggiato
	var g domain.Grado
	var gcat domain.Categoria
	var c domain.Camera
	var ccat domain.Categoria
	var assNote, telefono, codReparto, descReparto, ala, camNote sql.NullString
	err := scanner.Scan(
		&a.ID, &a.MatricolaAlloggiato, &a.IDCamera,
		&a.DataAssegnazione, &a.DataUscita, &assNote,
		&a.CreatedAt, &a.UpdatedAt,
		&al.Matricola, &al.IDGrado, &al.Cognome, &al.Nome, &telefono,
		&codReparto, &descReparto,
		&g.ID, &g.Codice, &g.Descrizione, &g.IDCategoria, &g.Ordinamento,
		&gcat.ID, &gcat.Codice, &gcat.Descrizione,
		&c.ID, &c.NumeroCamera, &c.Piano, &ala, &c.Edificio,
		&c.NrPosti, &c.Genere, &c.IDCategoria, &camNote,
		&c.Agibile, &c.Manutenzione,
		&ccat.ID, &ccat.Codice, &ccat.Descrizione,
	)
	if err != nil {
		return nil, err
	}
	a.Note = assNote.String
	al.Telefono = telefono.String
	al.CodiceReparto = codReparto.String
	al.DescrizioneReparto = descReparto.String
	g.Categoria = &gcat
	al.Grado = &g
	c.Ala = ala.String
	c.Note = camNote.String
	c.Categoria = &ccat
	a.Alloggiato = &al
	a.Camera = &c
	return &a, nil
}

const assegnazioneJoins = `
	FROM assegnazioni ass
	JOIN alloggiati al ON al.matricola = ass.matricola_alloggiato
	JOIN gradi g ON g.id = al.id_grado
	JOIN categorie cat ON cat.id = g.id_categoria
	JOIN camere cam ON cam.id = ass.id_camera
	JOIN categorie ccat ON ccat.id = cam.id_categoria`

const assegnazioneSelect = `
	SELECT ` + assegnazioneColumns + `,
	       ` + alloggiatoColumns + `,
	       cam.id, cam.numero_camera, cam.piano, cam.ala, cam.edificio,
	       cam.nr_posti, cam.genere, cam.id_categoria, cam.note,
	       cam.agibile, cam.manutenzione,
	       ccat.id, ccat.codice, ccat.descrizione` +
	assegnazioneJoins

func (r *PostgresAssegnazioniRepo) ListAssegnazioni(ctx context.Context, f AssegnazioniFilter) ([]*domain.Assegnazione, error) {
	query := assegnazioneSelect + `
	WHERE 1=1`
	args := []any{}
	if f.IDCamera != nil {
		args = append(args, *f.IDCamera)
		query += fmt.Sprintf(" AND ass.id_camera = $%d", len(args))
	}
	if f.Matricola != "" {
		args = append(args, f.Matricola)
		query += fmt.Sprintf(" AND ass.matricola_alloggiato = $%d", len(args))
	}
	if f.SoloAttive {
		query += " AND ass.data_uscita IS NULL"
	}
	query += ` ORDER BY ass.data_assegnazione DESC, ass.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assegnazioni: %w", err)
	}
	defer rows.Close()

	out := []*domain.Assegnazione{}
	for rows.Next() {
		a, err := scanAssegnazione(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assegnazione: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAssegnazioniRepo) GetAssegnazione(ctx context.Context, id int) (*domain.Assegnazione, error) {
	a, err := scanAssegnazione(r.db.QueryRowContext(ctx, assegnazioneSelect+` WHERE ass.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("Assegnazione non trovata")
		}
		return nil, fmt.Errorf("failed to get assegnazione: %w", err)
	}
	return a, nil
}

func (r *PostgresAssegnazioniRepo) GetAssegnazioneAttiva(ctx context.Context, matricola string) (*domain.Assegnazione, error) {
	a, err := scanAssegnazione(r.db.QueryRowContext(ctx,
		assegnazioneSelect+` WHERE ass.matricola_alloggiato = $1 AND ass.data_uscita IS NULL`,
		matricola))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("L'alloggiato non ha una camera assegnata")
		}
		return nil, fmt.Errorf("failed to get assegnazione attiva: %w", err)
	}
	return a, nil
}

// lockAlloggiato takes the per-resident lock; every mutation on an
// alloggiato's assignment serializes on this row.
func lockAlloggiato(ctx context.Context, tx *sql.Tx, matricola string) error {
	var locked string
	err := tx.QueryRowContext(ctx,
		`SELECT matricola FROM alloggiati WHERE matricola = $1 FOR UPDATE`,
		matricola).Scan(&locked)
	if err == sql.ErrNoRows {
		return domain.NewNotFoundError("Alloggiato non trovato")
	}
	if err != nil {
		return fmt.Errorf("failed to lock alloggiato: %w", err)
	}
	return nil
}

// lockCamera locks the room row and returns the fields the capacity and
// agibilita checks need.
func lockCamera(ctx context.Context, tx *sql.Tx, idCamera int) (numero string, nrPosti int, agibile bool, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT numero_camera, nr_posti, agibile FROM camere WHERE id = $1 FOR UPDATE`,
		idCamera).Scan(&numero, &nrPosti, &agibile)
	if err == sql.ErrNoRows {
		err = domain.NewNotFoundError("Camera non trovata")
	} else if err != nil {
		err = fmt.Errorf("failed to lock camera: %w", err)
	}
	return
}

func countAttiveTx(ctx context.Context, tx *sql.Tx, idCamera int) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assegnazioni WHERE id_camera = $1 AND data_uscita IS NULL`,
		idCamera).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active assegnazioni: %w", err)
	}
	return n, nil
}

func (r *PostgresAssegnazioniRepo) Assign(ctx context.Context, matricola string, idCamera int, dataAssegnazione time.Time, note string) (*domain.Assegnazione, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockAlloggiato(ctx, tx, matricola); err != nil {
		return nil, err
	}
	numero, nrPosti, agibile, err := lockCamera(ctx, tx, idCamera)
	if err != nil {
		return nil, err
	}

	var esistente int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM assegnazioni WHERE matricola_alloggiato = $1 AND data_uscita IS NULL`,
		matricola).Scan(&esistente)
	if err == nil {
		return nil, &domain.ConflictError{
			Reason:               "L'alloggiato ha già una camera assegnata",
			ExistingAssignmentID: esistente,
		}
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing assegnazione: %w", err)
	}

	occupati, err := countAttiveTx(ctx, tx, idCamera)
	if err != nil {
		return nil, err
	}
	if occupati >= nrPosti {
		return nil, &domain.CapacityError{
			NumeroCamera:  numero,
			PostiTotali:   nrPosti,
			PostiOccupati: occupati,
		}
	}
	if !agibile {
		return nil, domain.NewValidationError("Camera non agibile")
	}

	if dataAssegnazione.IsZero() {
		dataAssegnazione = time.Now()
	}
	var id int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO assegnazioni (matricola_alloggiato, id_camera, data_assegnazione, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		matricola, idCamera, dataAssegnazione, nullString(note)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create assegnazione: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assegnazione: %w", err)
	}
	return r.GetAssegnazione(ctx, id)
}

func (r *PostgresAssegnazioniRepo) Move(ctx context.Context, matricola string, idCameraDestinazione int, note string) (*MoveResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockAlloggiato(ctx, tx, matricola); err != nil {
		return nil, err
	}

	var idCorrente, idCameraCorrente int
	err = tx.QueryRowContext(ctx,
		`SELECT id, id_camera FROM assegnazioni WHERE matricola_alloggiato = $1 AND data_uscita IS NULL`,
		matricola).Scan(&idCorrente, &idCameraCorrente)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("L'alloggiato non ha una camera assegnata")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current assegnazione: %w", err)
	}
	if idCameraCorrente == idCameraDestinazione {
		return nil, domain.NewValidationError("L'alloggiato è già in questa camera")
	}

	// Both room rows locked in ascending id order so two concurrent
	// opposite moves cannot deadlock.
	primo, secondo := idCameraCorrente, idCameraDestinazione
	if secondo < primo {
		primo, secondo = secondo, primo
	}
	camere := map[int]struct {
		numero  string
		nrPosti int
		agibile bool
	}{}
	for _, id := range []int{primo, secondo} {
		numero, nrPosti, agibile, err := lockCamera(ctx, tx, id)
		if err != nil {
			var nf *domain.NotFoundError
			if id == idCameraDestinazione && errors.As(err, &nf) {
				return nil, domain.NewNotFoundError("Camera destinazione non trovata")
			}
			return nil, err
		}
		camere[id] = struct {
			numero  string
			nrPosti int
			agibile bool
		}{numero, nrPosti, agibile}
	}
	dest := camere[idCameraDestinazione]

	occupati, err := countAttiveTx(ctx, tx, idCameraDestinazione)
	if err != nil {
		return nil, err
	}
	if occupati >= dest.nrPosti {
		return nil, &domain.CapacityError{
			NumeroCamera:  dest.numero,
			PostiTotali:   dest.nrPosti,
			PostiOccupati: occupati,
		}
	}
	if !dest.agibile {
		return nil, domain.NewValidationError("Camera non agibile")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM assegnazioni WHERE id = $1`, idCorrente); err != nil {
		return nil, fmt.Errorf("failed to delete current assegnazione: %w", err)
	}

	if note == "" {
		note = fmt.Sprintf("Spostato da camera %s", camere[idCameraCorrente].numero)
	}
	var idNuova int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO assegnazioni (matricola_alloggiato, id_camera, data_assegnazione, note)
		VALUES ($1, $2, NOW(), $3)
		RETURNING id`,
		matricola, idCameraDestinazione, note).Scan(&idNuova)
	if err != nil {
		return nil, fmt.Errorf("failed to create assegnazione: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}

	a, err := r.GetAssegnazione(ctx, idNuova)
	if err != nil {
		return nil, err
	}
	return &MoveResult{
		CameraPrecedente: camere[idCameraCorrente].numero,
		CameraNuova:      dest.numero,
		Assegnazione:     a,
	}, nil
}

func (r *PostgresAssegnazioniRepo) Close(ctx context.Context, idAssegnazione int, dataUscita time.Time, note, inseritoDa string) (*domain.StoricoAssegnazione, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		matricola        string
		idCamera         int
		dataAssegnazione time.Time
		uscita           sql.NullTime
		assNote          sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		SELECT matricola_alloggiato, id_camera, data_assegnazione, data_uscita, note
		FROM assegnazioni WHERE id = $1 FOR UPDATE`,
		idAssegnazione).Scan(&matricola, &idCamera, &dataAssegnazione, &uscita, &assNote)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("Assegnazione non trovata")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock assegnazione: %w", err)
	}
	if uscita.Valid {
		return nil, &domain.ConflictError{Reason: "L'assegnazione è già stata chiusa"}
	}

	if dataUscita.IsZero() {
		dataUscita = time.Now()
	}
	if dataUscita.Before(dataAssegnazione) {
		return nil, domain.NewValidationError("La data di uscita non può essere precedente alla data di entrata")
	}

	// Denormalized snapshot taken inside the transaction: the history
	// record must survive any later change to alloggiato or camera.
	var (
		grado, cognome, nome string
		numeroCamera         string
		edificio             sql.NullString
		piano                sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT g.descrizione, al.cognome, al.nome,
		       cam.numero_camera, cam.edificio, cam.piano
		FROM alloggiati al
		JOIN gradi g ON g.id = al.id_grado
		JOIN camere cam ON cam.id = $2
		WHERE al.matricola = $1`,
		matricola, idCamera).Scan(&grado, &cognome, &nome, &numeroCamera, &edificio, &piano)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot for storico: %w", err)
	}

	if note == "" {
		note = assNote.String
	}
	storico := &domain.StoricoAssegnazione{
		MatricolaAlloggiato: matricola,
		Grado:               grado,
		Cognome:             cognome,
		Nome:                nome,
		IDCamera:            idCamera,
		NumeroCamera:        numeroCamera,
		Edificio:            edificio.String,
		DataEntrata:         dataAssegnazione,
		DataUscita:          dataUscita,
		Note:                note,
		InseritoDa:          inseritoDa,
	}
	if piano.Valid {
		p := int(piano.Int64)
		storico.Piano = &p
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO storico_assegnazioni
			(matricola_alloggiato, grado, cognome, nome, id_camera, numero_camera,
			 edificio, piano, data_entrata, data_uscita, note, inserito_da)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		matricola, grado, cognome, nome, idCamera, numeroCamera,
		nullString(storico.Edificio), piano, dataAssegnazione, dataUscita,
		nullString(note), nullString(inseritoDa)).Scan(&storico.ID, &storico.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to archive assegnazione: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM assegnazioni WHERE id = $1`, idAssegnazione); err != nil {
		return nil, fmt.Errorf("failed to delete assegnazione: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit close: %w", err)
	}
	return storico, nil
}

func (r *PostgresAssegnazioniRepo) Delete(ctx context.Context, idAssegnazione int) (*DeleteResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var matricola, numeroCamera string
	var uscita sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT ass.matricola_alloggiato, ass.data_uscita, cam.numero_camera
		FROM assegnazioni ass
		JOIN camere cam ON cam.id = ass.id_camera
		WHERE ass.id = $1
		FOR UPDATE OF ass`,
		idAssegnazione).Scan(&matricola, &uscita, &numeroCamera)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("Assegnazione non trovata")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock assegnazione: %w", err)
	}
	if uscita.Valid {
		return nil, &domain.ConflictError{Reason: "L'assegnazione è già stata chiusa"}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM assegnazioni WHERE id = $1`, idAssegnazione); err != nil {
		return nil, fmt.Errorf("failed to delete assegnazione: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return &DeleteResult{Matricola: matricola, NumeroCamera: numeroCamera}, nil
}

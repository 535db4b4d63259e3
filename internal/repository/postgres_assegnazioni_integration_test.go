// +build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/database"
	"caserma-alloggi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupAssegnazioniFixture(t *testing.T, db *sql.DB) (matricola string, idCamera int) {
	ctx := context.Background()

	var idCategoria, idGrado int
	err := db.QueryRowContext(ctx,
		`INSERT INTO categorie (codice, descrizione) VALUES ('TST', 'Test')
		 ON CONFLICT (codice) DO UPDATE SET descrizione = EXCLUDED.descrizione
		 RETURNING id`).Scan(&idCategoria)
	require.NoError(t, err)

	err = db.QueryRowContext(ctx,
		`INSERT INTO gradi (codice, descrizione, id_categoria, ordinamento)
		 VALUES ('TSTG', 'Grado Test', $1, 999)
		 ON CONFLICT (codice) DO UPDATE SET descrizione = EXCLUDED.descrizione
		 RETURNING id`, idCategoria).Scan(&idGrado)
	require.NoError(t, err)

	matricola = "T99999X"
	_, err = db.ExecContext(ctx,
		`INSERT INTO alloggiati (matricola, id_grado, cognome, nome)
		 VALUES ($1, $2, 'Collaudo', 'Prova')
		 ON CONFLICT (matricola) DO UPDATE SET id_grado = EXCLUDED.id_grado`,
		matricola, idGrado)
	require.NoError(t, err)

	err = db.QueryRowContext(ctx,
		`INSERT INTO camere (numero_camera, piano, edificio, nr_posti, genere, id_categoria, agibile)
		 VALUES ('T-901', 9, 'T', 1, 'M', $1, TRUE)
		 ON CONFLICT (numero_camera) DO UPDATE SET nr_posti = EXCLUDED.nr_posti
		 RETURNING id`, idCategoria).Scan(&idCamera)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM storico_assegnazioni WHERE matricola_alloggiato = $1`, matricola)
		db.ExecContext(ctx, `DELETE FROM assegnazioni WHERE matricola_alloggiato = $1`, matricola)
		db.ExecContext(ctx, `DELETE FROM alloggiati WHERE matricola = $1`, matricola)
		db.ExecContext(ctx, `DELETE FROM camere WHERE numero_camera = 'T-901'`)
	})
	return matricola, idCamera
}

func TestPostgresAssignCloseRoundTrip(t *testing.T) {
	db := getTestDB(t)
	repo := NewPostgresAssegnazioniRepo(db)
	storicoRepo := NewPostgresStoricoRepo(db)
	ctx := context.Background()

	matricola, idCamera := setupAssegnazioniFixture(t, db)

	entrata := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	a, err := repo.Assign(ctx, matricola, idCamera, entrata, "collaudo")
	require.NoError(t, err)
	require.NotNil(t, a.Camera)
	assert.Equal(t, "T-901", a.Camera.NumeroCamera)

	// the single bed is now taken
	_, err = repo.Assign(ctx, matricola, idCamera, entrata, "")
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)

	camereRepo := NewPostgresCamereRepo(db)
	occ, err := camereRepo.GetOccupazione(ctx, idCamera)
	require.NoError(t, err)
	assert.Equal(t, 1, occ.PostiOccupati)
	assert.Equal(t, domain.StatoCompleta, occ.Stato)
	require.Len(t, occ.Alloggiati, 1)
	assert.Equal(t, matricola, occ.Alloggiati[0].MatricolaAlloggiato)

	rec, err := repo.Close(ctx, a.ID, entrata.AddDate(0, 0, 15), "fine", "integration.test")
	require.NoError(t, err)
	assert.Equal(t, "Grado Test", rec.Grado)
	assert.Equal(t, "T-901", rec.NumeroCamera)

	_, err = repo.GetAssegnazione(ctx, a.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	got, err := storicoRepo.GetStorico(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, matricola, got.MatricolaAlloggiato)
}

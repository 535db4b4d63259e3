package service

import (
	"context"
	"testing"
	"time"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	store.Seed()

	for _, a := range []*domain.Alloggiato{
		{Matricola: "123456A", IDGrado: 1, Cognome: "Rossi", Nome: "Mario"},
		{Matricola: "234567B", IDGrado: 2, Cognome: "Bianchi", Nome: "Luca"},
		{Matricola: "345678C", IDGrado: 3, Cognome: "Verdi", Nome: "Anna"},
	} {
		require.NoError(t, store.CreateAlloggiato(context.Background(), a))
	}
	return store
}

func newAllocator(store *repository.MemoryStore) AllocatorService {
	return NewAllocatorService(store, store, zap.NewNop())
}

func TestAssign(t *testing.T) {
	store := newTestStore(t)
	svc := newAllocator(store)
	ctx := context.Background()

	a, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)
	assert.Equal(t, "123456A", a.MatricolaAlloggiato)
	assert.Equal(t, 1, a.IDCamera)
	assert.Nil(t, a.DataUscita)
	require.NotNil(t, a.Camera)
	assert.Equal(t, "101", a.Camera.NumeroCamera)
	require.NotNil(t, a.Alloggiato)
	assert.Equal(t, "Rossi", a.Alloggiato.Cognome)
}

func TestAssignMissingFields(t *testing.T) {
	svc := newAllocator(newTestStore(t))

	_, err := svc.Assign(context.Background(), AssignRequest{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Campi obbligatori mancanti", ve.Reason)
	assert.ElementsMatch(t, []string{"matricola_alloggiato", "id_camera"}, ve.Required)
}

func TestAssignAlreadyAssigned(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	first, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 2})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "L'alloggiato ha già una camera assegnata", ce.Reason)
	assert.Equal(t, first.ID, ce.ExistingAssignmentID)
}

func TestAssignUnknownTargets(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	var nf *domain.NotFoundError
	_, err := svc.Assign(ctx, AssignRequest{Matricola: "999999Z", IDCamera: 1})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Alloggiato non trovato", nf.Message)

	_, err = svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 99})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Camera non trovata", nf.Message)
}

func TestAssignCapacity(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	// camera 1 has two beds
	_, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignRequest{Matricola: "234567B", IDCamera: 1})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, AssignRequest{Matricola: "345678C", IDCamera: 1})
	var cpe *domain.CapacityError
	require.ErrorAs(t, err, &cpe)
	assert.Equal(t, "101", cpe.NumeroCamera)
	assert.Equal(t, 2, cpe.PostiTotali)
	assert.Equal(t, 2, cpe.PostiOccupati)
}

func TestMove(t *testing.T) {
	store := newTestStore(t)
	svc := newAllocator(store)
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)

	res, err := svc.Move(ctx, MoveRequest{Matricola: "123456A", IDCameraDestinazione: 2})
	require.NoError(t, err)
	assert.Equal(t, "101", res.CameraPrecedente)
	assert.Equal(t, "102", res.CameraNuova)
	assert.Equal(t, 2, res.Assegnazione.IDCamera)
	assert.Equal(t, "Spostato da camera 101", res.Assegnazione.Note)

	// the old room is free again
	occ, err := store.GetOccupazione(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, occ.PostiOccupati)
}

func TestMoveSameRoom(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)

	_, err = svc.Move(ctx, MoveRequest{Matricola: "123456A", IDCameraDestinazione: 1})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "L'alloggiato è già in questa camera", ve.Reason)
}

func TestMoveWithoutAssignment(t *testing.T) {
	svc := newAllocator(newTestStore(t))

	_, err := svc.Move(context.Background(), MoveRequest{Matricola: "123456A", IDCameraDestinazione: 1})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "L'alloggiato non ha una camera assegnata", nf.Message)
}

func TestMoveDestinationFull(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	// camera 3 has a single bed
	_, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 3})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignRequest{Matricola: "234567B", IDCamera: 1})
	require.NoError(t, err)

	_, err = svc.Move(ctx, MoveRequest{Matricola: "234567B", IDCameraDestinazione: 3})
	var cpe *domain.CapacityError
	require.ErrorAs(t, err, &cpe)
	assert.Equal(t, "201", cpe.NumeroCamera)
	assert.Equal(t, 1, cpe.PostiOccupati)
}

func TestClose(t *testing.T) {
	store := newTestStore(t)
	svc := newAllocator(store)
	ctx := context.Background()

	entrata := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1, DataAssegnazione: entrata})
	require.NoError(t, err)

	uscita := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	rec, err := svc.Close(ctx, CloseRequest{
		IDAssegnazione: a.ID,
		DataUscita:     uscita,
		Note:           "fine incarico",
		InseritoDa:     "operatore.uno",
	})
	require.NoError(t, err)

	// denormalized snapshot
	assert.Equal(t, "123456A", rec.MatricolaAlloggiato)
	assert.Equal(t, "Tenente", rec.Grado)
	assert.Equal(t, "Rossi", rec.Cognome)
	assert.Equal(t, "101", rec.NumeroCamera)
	assert.Equal(t, "A", rec.Edificio)
	assert.True(t, rec.DataEntrata.Equal(entrata))
	assert.True(t, rec.DataUscita.Equal(uscita))
	assert.Equal(t, "operatore.uno", rec.InseritoDa)

	// the assignment is gone
	_, err = svc.GetAssegnazione(ctx, a.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	// the history record survives
	got, err := store.GetStorico(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestCloseMissingFields(t *testing.T) {
	svc := newAllocator(newTestStore(t))

	_, err := svc.Close(context.Background(), CloseRequest{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{"id_assegnazione", "data_uscita"}, ve.Required)
}

func TestCloseDateBeforeEntry(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	entrata := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	a, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1, DataAssegnazione: entrata})
	require.NoError(t, err)

	_, err = svc.Close(ctx, CloseRequest{
		IDAssegnazione: a.ID,
		DataUscita:     entrata.AddDate(0, 0, -1),
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "La data di uscita non può essere precedente alla data di entrata", ve.Reason)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	svc := newAllocator(store)
	ctx := context.Background()

	a, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)

	res, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456A", res.Matricola)
	assert.Equal(t, "101", res.NumeroCamera)

	// no history record was written
	list, err := store.ListStorico(ctx, repository.StoricoFilter{Matricola: "123456A"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteUnknown(t *testing.T) {
	svc := newAllocator(newTestStore(t))

	_, err := svc.Delete(context.Background(), 42)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Assegnazione non trovata", nf.Message)
}

func TestListAssegnazioniFilters(t *testing.T) {
	svc := newAllocator(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignRequest{Matricola: "234567B", IDCamera: 2})
	require.NoError(t, err)

	resp, err := svc.ListAssegnazioni(ctx, ListAssegnazioniRequest{SoloAttive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)

	idCamera := 2
	resp, err = svc.ListAssegnazioni(ctx, ListAssegnazioniRequest{IDCamera: &idCamera, SoloAttive: true})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "234567B", resp.Assegnazioni[0].MatricolaAlloggiato)

	resp, err = svc.ListAssegnazioni(ctx, ListAssegnazioniRequest{Matricola: "123456A", SoloAttive: true})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 1, resp.Assegnazioni[0].IDCamera)
}

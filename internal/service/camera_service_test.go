package service

import (
	"context"
	"testing"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCameraService(store *repository.MemoryStore) CameraService {
	return NewCameraService(store, store, zap.NewNop())
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestCreateCamera(t *testing.T) {
	svc := newCameraService(newTestStore(t))

	c, err := svc.CreateCamera(context.Background(), SaveCameraRequest{
		NumeroCamera: "301",
		Piano:        intPtr(3),
		Edificio:     "B",
		NrPosti:      3,
		Genere:       "Misto",
		IDCategoria:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "301", c.NumeroCamera)
	assert.True(t, c.Agibile)
	assert.False(t, c.Manutenzione)
	require.NotNil(t, c.Categoria)
	assert.Equal(t, "SU", c.Categoria.Codice)
}

func TestCreateCameraValidation(t *testing.T) {
	svc := newCameraService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.CreateCamera(ctx, SaveCameraRequest{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Campi obbligatori mancanti", ve.Reason)
	assert.Contains(t, ve.Required, "numero_camera")
	assert.Contains(t, ve.Required, "piano")
	assert.Contains(t, ve.Required, "nr_posti")

	_, err = svc.CreateCamera(ctx, SaveCameraRequest{
		NumeroCamera: "301", Piano: intPtr(3), Edificio: "B",
		NrPosti: 2, Genere: "X", IDCategoria: 1,
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Genere deve essere M, F o Misto", ve.Reason)

	_, err = svc.CreateCamera(ctx, SaveCameraRequest{
		NumeroCamera: "301", Piano: intPtr(3), Edificio: "B",
		NrPosti: 2, Genere: "M", IDCategoria: 99,
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Categoria non valida", ve.Reason)
}

func TestCreateCameraDuplicateNumero(t *testing.T) {
	svc := newCameraService(newTestStore(t))

	_, err := svc.CreateCamera(context.Background(), SaveCameraRequest{
		NumeroCamera: "101", Piano: intPtr(1), Edificio: "A",
		NrPosti: 2, Genere: "M", IDCategoria: 1,
	})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, `Il numero camera "101" è già in uso`, ce.Reason)
}

func TestUpdateCameraCapacityGuard(t *testing.T) {
	store := newTestStore(t)
	svc := newCameraService(store)
	allocator := newAllocator(store)
	ctx := context.Background()

	_, err := allocator.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)
	_, err = allocator.Assign(ctx, AssignRequest{Matricola: "234567B", IDCamera: 1})
	require.NoError(t, err)

	_, err = svc.UpdateCamera(ctx, 1, SaveCameraRequest{
		NumeroCamera: "101", Piano: intPtr(1), Edificio: "A",
		NrPosti: 1, Genere: "M", IDCategoria: 1,
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Impossibile ridurre i posti a 1. Ci sono 2 alloggiati assegnati", ve.Reason)

	// the guard lives in the repository, atomically with the write, so
	// an assign landing between a service-level check and the update
	// cannot slip a room below its occupants
	err = store.UpdateCamera(ctx, &domain.Camera{
		ID: 1, NumeroCamera: "101", Piano: 1, Edificio: "A",
		NrPosti: 1, Genere: "M", IDCategoria: 1, Agibile: true,
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Impossibile ridurre i posti a 1. Ci sono 2 alloggiati assegnati", ve.Reason)

	// growing is always allowed
	c, err := svc.UpdateCamera(ctx, 1, SaveCameraRequest{
		NumeroCamera: "101", Piano: intPtr(1), Edificio: "A",
		NrPosti: 3, Genere: "M", IDCategoria: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, c.NrPosti)
}

func TestUpdateCameraAgibile(t *testing.T) {
	store := newTestStore(t)
	svc := newCameraService(store)
	ctx := context.Background()

	c, err := svc.UpdateCamera(ctx, 1, SaveCameraRequest{
		NumeroCamera: "101", Piano: intPtr(1), Edificio: "A",
		NrPosti: 2, Genere: "M", IDCategoria: 1,
		Agibile: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, c.Agibile)

	// a non-agibile room refuses new assignments
	_, err = newAllocator(store).Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Camera non agibile", ve.Reason)
}

func TestListCamereDisponibili(t *testing.T) {
	store := newTestStore(t)
	svc := newCameraService(store)
	allocator := newAllocator(store)
	ctx := context.Background()

	// fill the single-bed room
	_, err := allocator.Assign(ctx, AssignRequest{Matricola: "345678C", IDCamera: 3})
	require.NoError(t, err)

	resp, err := svc.ListCamere(ctx, ListCamereRequest{SoloDisponibili: true})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	for _, c := range resp.Camere {
		assert.NotEqual(t, "201", c.NumeroCamera)
		assert.Greater(t, c.PostiLiberi, 0)
	}

	// disponibili filters on free beds only: a non-agibile room with
	// free beds stays listed (assigning to it is refused separately)
	_, err = svc.UpdateCamera(ctx, 1, SaveCameraRequest{
		NumeroCamera: "101", Piano: intPtr(1), Edificio: "A",
		NrPosti: 2, Genere: "M", IDCategoria: 1,
		Agibile: boolPtr(false),
	})
	require.NoError(t, err)

	resp, err = svc.ListCamere(ctx, ListCamereRequest{SoloDisponibili: true})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	numeri := []string{resp.Camere[0].NumeroCamera, resp.Camere[1].NumeroCamera}
	assert.Contains(t, numeri, "101")
}

func TestOccupazioneStato(t *testing.T) {
	store := newTestStore(t)
	allocator := newAllocator(store)
	ctx := context.Background()

	occ, err := store.GetOccupazione(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatoLibera, occ.Stato)

	_, err = allocator.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)
	occ, err = store.GetOccupazione(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatoParziale, occ.Stato)
	assert.Equal(t, 1, occ.PostiLiberi)
	require.Len(t, occ.Alloggiati, 1)

	_, err = allocator.Assign(ctx, AssignRequest{Matricola: "234567B", IDCamera: 1})
	require.NoError(t, err)
	occ, err = store.GetOccupazione(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatoCompleta, occ.Stato)
	assert.Equal(t, 0, occ.PostiLiberi)
}

func TestCamereStats(t *testing.T) {
	store := newTestStore(t)
	svc := newCameraService(store)
	allocator := newAllocator(store)
	ctx := context.Background()

	_, err := allocator.Assign(ctx, AssignRequest{Matricola: "123456A", IDCamera: 1})
	require.NoError(t, err)
	_, err = allocator.Assign(ctx, AssignRequest{Matricola: "345678C", IDCamera: 3})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Generale.TotaleCamere)
	assert.Equal(t, 7, stats.Generale.TotalePosti)
	assert.Equal(t, 2, stats.Generale.PostiOccupati)
	assert.Equal(t, 5, stats.Generale.PostiLiberi)
	assert.Equal(t, 1, stats.Generale.CamereLibere)
	assert.Equal(t, 1, stats.Generale.CamereParziali)
	assert.Equal(t, 1, stats.Generale.CamereComplete)

	// sorted by categoria codice: SU before U
	require.Len(t, stats.PerCategoria, 2)
	assert.Equal(t, "Sottufficiali", stats.PerCategoria[0].Categoria)
	assert.Equal(t, 4, stats.PerCategoria[0].TotalePosti)
	assert.Equal(t, "Ufficiali", stats.PerCategoria[1].Categoria)
	assert.Equal(t, 2, stats.PerCategoria[1].PostiOccupati)
}

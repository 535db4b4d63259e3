package service

import (
	"context"
	"testing"
	"time"

	"caserma-alloggi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// archive closes an assignment created on entrata after the given days.
func archive(t *testing.T, allocator AllocatorService, matricola string, idCamera int, entrata time.Time, giorni int) *domain.StoricoAssegnazione {
	t.Helper()
	ctx := context.Background()

	a, err := allocator.Assign(ctx, AssignRequest{Matricola: matricola, IDCamera: idCamera, DataAssegnazione: entrata})
	require.NoError(t, err)
	rec, err := allocator.Close(ctx, CloseRequest{
		IDAssegnazione: a.ID,
		DataUscita:     entrata.AddDate(0, 0, giorni),
		InseritoDa:     "operatore.uno",
	})
	require.NoError(t, err)
	return rec
}

func TestListStoricoFilters(t *testing.T) {
	store := newTestStore(t)
	allocator := newAllocator(store)
	svc := NewStoricoService(store, zap.NewNop())
	ctx := context.Background()

	gen := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	archive(t, allocator, "123456A", 1, gen, 20)
	archive(t, allocator, "234567B", 2, gen.AddDate(0, 2, 0), 10)

	resp, err := svc.ListStorico(ctx, ListStoricoRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)

	resp, err = svc.ListStorico(ctx, ListStoricoRequest{Matricola: "123456A"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "101", resp.Storico[0].NumeroCamera)

	resp, err = svc.ListStorico(ctx, ListStoricoRequest{NumeroCamera: "102"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "234567B", resp.Storico[0].MatricolaAlloggiato)

	// rank filter is a case-insensitive substring match
	resp, err = svc.ListStorico(ctx, ListStoricoRequest{Grado: "tenente"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Tenente", resp.Storico[0].Grado)

	da := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	resp, err = svc.ListStorico(ctx, ListStoricoRequest{DataUscitaDa: &da})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "234567B", resp.Storico[0].MatricolaAlloggiato)
}

func TestStoricoStats(t *testing.T) {
	store := newTestStore(t)
	allocator := newAllocator(store)
	svc := NewStoricoService(store, zap.NewNop())
	ctx := context.Background()

	gen := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	archive(t, allocator, "123456A", 1, gen, 20)
	archive(t, allocator, "234567B", 1, gen, 10)
	// outside 2026, excluded by the anno filter
	archive(t, allocator, "345678C", 2, gen.AddDate(-1, 0, 0), 40)

	stats, err := svc.GetStats(ctx, StoricoStatsRequest{Anno: 2026})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotaleMovimenti)
	assert.Equal(t, 2, stats.PerCamera["101"])
	assert.Equal(t, 1, stats.PerGrado["Tenente"])
	assert.Equal(t, 1, stats.PerGrado["Capitano"])
	assert.Equal(t, 2, stats.PerEdificio["A"])
	assert.Equal(t, 15, stats.DurataMedia)

	stats, err = svc.GetStats(ctx, StoricoStatsRequest{Anno: 2026, Mese: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotaleMovimenti)
	assert.Equal(t, 0, stats.DurataMedia)

	stats, err = svc.GetStats(ctx, StoricoStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotaleMovimenti)
}

func TestDeleteStorico(t *testing.T) {
	store := newTestStore(t)
	allocator := newAllocator(store)
	svc := NewStoricoService(store, zap.NewNop())
	ctx := context.Background()

	rec := archive(t, allocator, "123456A", 1, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), 5)

	require.NoError(t, svc.DeleteStorico(ctx, rec.ID, "admin.user"))

	_, err := svc.GetStorico(ctx, rec.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Record non trovato nello storico", nf.Message)
}

func TestStoricoImmutableAfterSourceDeletion(t *testing.T) {
	store := newTestStore(t)
	allocator := newAllocator(store)
	alloggiati := newAlloggiatoService(store)
	svc := NewStoricoService(store, zap.NewNop())
	ctx := context.Background()

	rec := archive(t, allocator, "123456A", 1, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), 5)

	// deleting the alloggiato leaves the snapshot untouched
	require.NoError(t, alloggiati.DeleteAlloggiato(ctx, "123456A"))

	got, err := svc.GetStorico(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rossi", got.Cognome)
	assert.Equal(t, "101", got.NumeroCamera)
}

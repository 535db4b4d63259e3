package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"caserma-alloggi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archiveViaAPI(t *testing.T, h http.Handler, matricola string, idCamera int) *domain.StoricoAssegnazione {
	t.Helper()

	_, created := doJSON(t, h, http.MethodPost, "/api/assegnazioni", map[string]any{
		"matricola_alloggiato": matricola,
		"id_camera":            idCamera,
		"data_assegnazione":    "2026-02-01",
	})
	a := decodeAssegnazione(t, created.Data)

	rec, res := doJSON(t, h, http.MethodPost, "/api/storico-assegnazioni/sposta-in-storico", map[string]any{
		"id_assegnazione": a.ID,
		"data_uscita":     "2026-02-20",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Militare rimosso dalla camera e spostato nello storico", res.Message)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var s domain.StoricoAssegnazione
	require.NoError(t, json.Unmarshal(raw, &s))
	return &s
}

func TestSpostaInStoricoEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec := archiveViaAPI(t, h, "123456A", 1)
	assert.Equal(t, "123456A", rec.MatricolaAlloggiato)
	assert.Equal(t, "Tenente", rec.Grado)
	assert.Equal(t, "101", rec.NumeroCamera)
	// operator comes from the authenticated identity
	assert.Equal(t, "test.user", rec.InseritoDa)
}

func TestSpostaInStoricoMissingFields(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodPost, "/api/storico-assegnazioni/sposta-in-storico", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Campi obbligatori mancanti", res.Error)
	assert.ElementsMatch(t, []string{"id_assegnazione", "data_uscita"}, res.Required)
}

func TestListStoricoByMilitare(t *testing.T) {
	h, _ := newTestServer(t)

	archiveViaAPI(t, h, "123456A", 1)
	archiveViaAPI(t, h, "234567B", 2)

	rec, res := doJSON(t, h, http.MethodGet, "/api/storico-assegnazioni/militare/123456A", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, res.Count)
	assert.Equal(t, 1, *res.Count)

	rec, res = doJSON(t, h, http.MethodGet, "/api/storico-assegnazioni/camera/2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, res.Count)
	assert.Equal(t, 1, *res.Count)
}

func TestStoricoStatsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	archiveViaAPI(t, h, "123456A", 1)

	rec, res := doJSON(t, h, http.MethodGet, "/api/storico-assegnazioni/stats?anno=2026", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var stats struct {
		TotaleMovimenti int            `json:"totale_movimenti"`
		PerCamera       map[string]int `json:"per_camera"`
		DurataMedia     int            `json:"durata_media"`
	}
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 1, stats.TotaleMovimenti)
	assert.Equal(t, 1, stats.PerCamera["101"])
	assert.Equal(t, 19, stats.DurataMedia)
}

func TestDeleteStoricoRequiresAdmin(t *testing.T) {
	h, mem := newTestServer(t)

	archiveViaAPI(t, h, "123456A", 1)

	rr, res := doJSON(t, h, http.MethodDelete, "/api/storico-assegnazioni/1", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "operazione riservata agli amministratori", res.Error)

	// grant the admin flag and retry (fresh server to skip the cache)
	mem.SetAdmin("TEST.USER", true)
	h2 := rebuildServer(t, mem)
	rr, res = doJSON(t, h2, http.MethodDelete, "/api/storico-assegnazioni/1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Record eliminato dallo storico", res.Message)

	rr, res = doJSON(t, h2, http.MethodGet, "/api/storico-assegnazioni/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Record non trovato nello storico", res.Error)
}

func TestExportStoricoEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	archiveViaAPI(t, h, "123456A", 1)

	req, rr := newRawRequest(http.MethodGet, "/api/storico-assegnazioni/export")
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "storico_assegnazioni_")
	// xlsx archives start with the zip magic
	body := rr.Body.Bytes()
	require.Greater(t, len(body), 4)
	assert.Equal(t, []byte{'P', 'K'}, body[:2])
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"caserma-alloggi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCamereEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodGet, "/api/camere", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, res.Count)
	assert.Equal(t, 3, *res.Count)

	rec, res = doJSON(t, h, http.MethodGet, "/api/camere?genere=F", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, res.Count)
	assert.Equal(t, 1, *res.Count)
}

// /disponibili is a fixed segment, it must not be parsed as a room id.
func TestCamereDisponibiliRouting(t *testing.T) {
	h, _ := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/assegnazioni", map[string]any{
		"matricola_alloggiato": "123456A", "id_camera": 3,
	})

	rec, res := doJSON(t, h, http.MethodGet, "/api/camere/disponibili", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, res.Count)
	assert.Equal(t, 2, *res.Count)
}

func TestGetCameraEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodGet, "/api/camere/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var occ domain.CameraOccupazione
	require.NoError(t, json.Unmarshal(raw, &occ))
	require.NotNil(t, occ.Camera)
	assert.Equal(t, "101", occ.Camera.NumeroCamera)
	assert.Equal(t, domain.StatoLibera, occ.Stato)

	rec, res = doJSON(t, h, http.MethodGet, "/api/camere/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Camera non trovata", res.Error)
}

func TestCreateCameraEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodPost, "/api/camere", map[string]any{
		"numero_camera": "301",
		"piano":         3,
		"edificio":      "B",
		"nr_posti":      2,
		"genere":        "Misto",
		"id_categoria":  1,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Camera creata con successo", res.Message)

	rec, res = doJSON(t, h, http.MethodPost, "/api/camere", map[string]any{
		"numero_camera": "101",
		"piano":         1,
		"edificio":      "A",
		"nr_posti":      2,
		"genere":        "M",
		"id_categoria":  1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Il numero camera "101" è già in uso`, res.Error)
}

func TestUpdateCameraEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/assegnazioni", map[string]any{
		"matricola_alloggiato": "123456A", "id_camera": 1,
	})
	doJSON(t, h, http.MethodPost, "/api/assegnazioni", map[string]any{
		"matricola_alloggiato": "234567B", "id_camera": 1,
	})

	rec, res := doJSON(t, h, http.MethodPut, "/api/camere/1", map[string]any{
		"numero_camera": "101",
		"piano":         1,
		"edificio":      "A",
		"nr_posti":      1,
		"genere":        "M",
		"id_categoria":  1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Impossibile ridurre i posti a 1. Ci sono 2 alloggiati assegnati", res.Error)
}

func TestCamereStatsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodGet, "/api/camere/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var stats struct {
		Generale struct {
			TotaleCamere int `json:"totale_camere"`
			TotalePosti  int `json:"totale_posti"`
		} `json:"generale"`
		PerCategoria []struct {
			Categoria string `json:"categoria"`
		} `json:"per_categoria"`
	}
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 3, stats.Generale.TotaleCamere)
	assert.Equal(t, 7, stats.Generale.TotalePosti)
	require.Len(t, stats.PerCategoria, 2)
}

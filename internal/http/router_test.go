package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"
	"caserma-alloggi/internal/service"
	"caserma-alloggi/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer wires the full API over a seeded memory store, with the
// auth gate in development mode.
func newTestServer(t *testing.T) (http.Handler, *repository.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()

	mem := repository.NewMemoryStore()
	mem.Seed()
	for _, a := range []*domain.Alloggiato{
		{Matricola: "123456A", IDGrado: 1, Cognome: "Rossi", Nome: "Mario"},
		{Matricola: "234567B", IDGrado: 3, Cognome: "Bianchi", Nome: "Luca"},
	} {
		require.NoError(t, mem.CreateAlloggiato(context.Background(), a))
	}

	authCfg := config.AuthConfig{
		Mode:        config.ModeDevelopment,
		DevUsername: "test.user",
		Domain:      "GDFNET",
		AdminTTL:    time.Minute,
	}
	auth := service.NewAuthService(authCfg, mem, store.NewMemoryKV(), logger)
	allocator := service.NewAllocatorService(mem, mem, logger)
	camere := service.NewCameraService(mem, mem, logger)
	alloggiati := service.NewAlloggiatoService(mem, mem, logger)
	anagrafica := service.NewAnagraficaService(mem, mem, logger)
	storico := service.NewStoricoService(mem, logger)
	directory := service.NewDirectoryClient(config.DirectoryConfig{}, config.ModeDevelopment, logger)

	router := NewRouter(auth, logger)
	router.RegisterHealth()
	router.RegisterAuthRoutes(NewAuthHandler(auth, logger))
	router.RegisterDirectoryRoutes(NewDirectoryHandler(directory, logger))
	router.RegisterAnagraficaRoutes(NewAnagraficaHandler(anagrafica, logger))
	router.RegisterCamereRoutes(NewCamereHandler(camere, logger))
	router.RegisterAlloggiatiRoutes(NewAlloggiatiHandler(alloggiati, logger))
	router.RegisterAssegnazioniRoutes(NewAssegnazioniHandler(allocator, logger))
	router.RegisterStoricoRoutes(NewStoricoHandler(allocator, storico, auth, logger))

	return router.Handler(), mem
}

// rebuildServer wires a fresh API stack over an existing store, with a
// clean admin cache.
func rebuildServer(t *testing.T, mem *repository.MemoryStore) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	authCfg := config.AuthConfig{
		Mode:        config.ModeDevelopment,
		DevUsername: "test.user",
		Domain:      "GDFNET",
		AdminTTL:    time.Minute,
	}
	auth := service.NewAuthService(authCfg, mem, store.NewMemoryKV(), logger)
	allocator := service.NewAllocatorService(mem, mem, logger)
	storico := service.NewStoricoService(mem, logger)

	router := NewRouter(auth, logger)
	router.RegisterStoricoRoutes(NewStoricoHandler(allocator, storico, auth, logger))
	return router.Handler()
}

func newRawRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Result) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res Result
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, res.Success)
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/camere", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthUserEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, res := doJSON(t, h, http.MethodGet, "/api/auth/user", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)

	data, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var id domain.Identity
	require.NoError(t, json.Unmarshal(data, &id))
	assert.Equal(t, "test.user", id.Username)
	assert.True(t, id.Authenticated)
}

func TestUnauthenticatedRequest(t *testing.T) {
	logger := zap.NewNop()
	mem := repository.NewMemoryStore()
	mem.Seed()

	// production mode: without the header the gate rejects the request
	auth := service.NewAuthService(config.AuthConfig{Mode: config.ModeProduction}, mem, store.NewMemoryKV(), logger)
	camere := service.NewCameraService(mem, mem, logger)

	router := NewRouter(auth, logger)
	router.RegisterCamereRoutes(NewCamereHandler(camere, logger))
	h := router.Handler()

	rec, res := doJSON(t, h, http.MethodGet, "/api/camere", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "utente non autenticato", res.Error)

	req := httptest.NewRequest(http.MethodGet, "/api/camere", nil)
	req.Header.Set("X-Authenticated-User", `GDFNET\mario.rossi`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

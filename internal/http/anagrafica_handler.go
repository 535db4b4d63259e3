package httpapi

import (
	"net/http"
	"strings"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// AnagraficaHandler read-only lookup tables: categorie and gradi.
type AnagraficaHandler struct {
	anagrafica service.AnagraficaService
	logger     *zap.Logger
}

func NewAnagraficaHandler(anagrafica service.AnagraficaService, logger *zap.Logger) *AnagraficaHandler {
	return &AnagraficaHandler{anagrafica: anagrafica, logger: logger}
}

func (h *AnagraficaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/api/categorie":
		h.ListCategorie(w, r)
	case strings.HasPrefix(path, "/api/categorie/"):
		id := parseInt(strings.TrimPrefix(path, "/api/categorie/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetCategoria(w, r, id)
	case path == "/api/gradi":
		h.ListGradi(w, r)
	case strings.HasPrefix(path, "/api/gradi/"):
		id := parseInt(strings.TrimPrefix(path, "/api/gradi/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetGrado(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListCategorie GET /api/categorie
func (h *AnagraficaHandler) ListCategorie(w http.ResponseWriter, r *http.Request) {
	list, err := h.anagrafica.ListCategorie(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, len(list), list)
}

// GetCategoria GET /api/categorie/:id
func (h *AnagraficaHandler) GetCategoria(w http.ResponseWriter, r *http.Request, id int) {
	c, err := h.anagrafica.GetCategoria(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// ListGradi GET /api/gradi?id_categoria=
func (h *AnagraficaHandler) ListGradi(w http.ResponseWriter, r *http.Request) {
	idCategoria := parseInt(r.URL.Query().Get("id_categoria"), 0)
	list, err := h.anagrafica.ListGradi(r.Context(), idCategoria)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, len(list), list)
}

// GetGrado GET /api/gradi/:id
func (h *AnagraficaHandler) GetGrado(w http.ResponseWriter, r *http.Request, id int) {
	g, err := h.anagrafica.GetGrado(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, g)
}

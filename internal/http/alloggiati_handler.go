package httpapi

import (
	"net/http"
	"strings"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// AlloggiatiHandler resident endpoints, keyed by matricola.
type AlloggiatiHandler struct {
	alloggiati service.AlloggiatoService
	logger     *zap.Logger
}

func NewAlloggiatiHandler(alloggiati service.AlloggiatoService, logger *zap.Logger) *AlloggiatiHandler {
	return &AlloggiatiHandler{alloggiati: alloggiati, logger: logger}
}

func (h *AlloggiatiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/alloggiati" && r.Method == http.MethodGet:
		h.ListAlloggiati(w, r)
	case path == "/api/alloggiati" && r.Method == http.MethodPost:
		h.CreateAlloggiato(w, r)
	case path == "/api/alloggiati/stats" && r.Method == http.MethodGet:
		h.GetStats(w, r)
	case strings.HasPrefix(path, "/api/alloggiati/"):
		matricola := strings.TrimPrefix(path, "/api/alloggiati/")
		if matricola == "" || strings.Contains(matricola, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.GetAlloggiato(w, r, matricola)
		case http.MethodPut:
			h.UpdateAlloggiato(w, r, matricola)
		case http.MethodDelete:
			h.DeleteAlloggiato(w, r, matricola)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ListAlloggiati GET /api/alloggiati with optional filters.
func (h *AlloggiatiHandler) ListAlloggiati(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListAlloggiatiRequest{
		IDGrado:     queryIntPtr(r, "id_grado"),
		IDCategoria: queryIntPtr(r, "id_categoria"),
		Cognome:     strings.TrimSpace(q.Get("cognome")),
		Reparto:     strings.TrimSpace(q.Get("reparto")),
		ConCamera:   queryBool(r, "con_camera"),
		SenzaCamera: queryBool(r, "senza_camera"),
	}

	resp, err := h.alloggiati.ListAlloggiati(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, resp.Count, resp.Alloggiati)
}

// GetAlloggiato GET /api/alloggiati/:matricola
func (h *AlloggiatiHandler) GetAlloggiato(w http.ResponseWriter, r *http.Request, matricola string) {
	a, err := h.alloggiati.GetAlloggiato(r.Context(), matricola)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

// GetStats GET /api/alloggiati/stats
func (h *AlloggiatiHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alloggiati.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

type alloggiatoBody struct {
	Matricola          string `json:"matricola"`
	IDGrado            int    `json:"id_grado"`
	Cognome            string `json:"cognome"`
	Nome               string `json:"nome"`
	Telefono           string `json:"telefono"`
	CodiceReparto      string `json:"codice_reparto"`
	DescrizioneReparto string `json:"descrizione_reparto"`
}

func (b alloggiatoBody) toRequest() service.SaveAlloggiatoRequest {
	return service.SaveAlloggiatoRequest{
		Matricola:          b.Matricola,
		IDGrado:            b.IDGrado,
		Cognome:            b.Cognome,
		Nome:               b.Nome,
		Telefono:           b.Telefono,
		CodiceReparto:      b.CodiceReparto,
		DescrizioneReparto: b.DescrizioneReparto,
	}
}

// CreateAlloggiato POST /api/alloggiati
func (h *AlloggiatiHandler) CreateAlloggiato(w http.ResponseWriter, r *http.Request) {
	var body alloggiatoBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid create alloggiato body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	a, err := h.alloggiati.CreateAlloggiato(r.Context(), body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Alloggiato creato con successo", a)
}

// UpdateAlloggiato PUT /api/alloggiati/:matricola
func (h *AlloggiatiHandler) UpdateAlloggiato(w http.ResponseWriter, r *http.Request, matricola string) {
	var body alloggiatoBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid update alloggiato body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	a, err := h.alloggiati.UpdateAlloggiato(r.Context(), matricola, body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Alloggiato aggiornato con successo", a)
}

// DeleteAlloggiato DELETE /api/alloggiati/:matricola
// Refused while the alloggiato still holds a room.
func (h *AlloggiatiHandler) DeleteAlloggiato(w http.ResponseWriter, r *http.Request, matricola string) {
	if err := h.alloggiati.DeleteAlloggiato(r.Context(), matricola); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Alloggiato eliminato con successo", nil)
}

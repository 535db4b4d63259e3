package httpapi

import (
	"net/http"
	"strings"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// AssegnazioniHandler active assignment endpoints: list, create, move,
// hard delete, per-room occupancy.
type AssegnazioniHandler struct {
	allocator service.AllocatorService
	logger    *zap.Logger
}

func NewAssegnazioniHandler(allocator service.AllocatorService, logger *zap.Logger) *AssegnazioniHandler {
	return &AssegnazioniHandler{allocator: allocator, logger: logger}
}

func (h *AssegnazioniHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/assegnazioni" && r.Method == http.MethodGet:
		h.ListAssegnazioni(w, r)
	case path == "/api/assegnazioni" && r.Method == http.MethodPost:
		h.CreateAssegnazione(w, r)
	case path == "/api/assegnazioni/sposta" && r.Method == http.MethodPost:
		h.SpostaAlloggiato(w, r)
	case strings.HasPrefix(path, "/api/assegnazioni/camera/") && r.Method == http.MethodGet:
		idCamera := parseInt(strings.TrimPrefix(path, "/api/assegnazioni/camera/"), 0)
		if idCamera <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetOccupazioneCamera(w, r, idCamera)
	case strings.HasPrefix(path, "/api/assegnazioni/") && r.Method == http.MethodGet:
		id := parseInt(strings.TrimPrefix(path, "/api/assegnazioni/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetAssegnazione(w, r, id)
	case strings.HasPrefix(path, "/api/assegnazioni/") && r.Method == http.MethodDelete:
		id := parseInt(strings.TrimPrefix(path, "/api/assegnazioni/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.DeleteAssegnazione(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ListAssegnazioni GET /api/assegnazioni?attive=&id_camera=&matricola=
// Without parameters it returns the active assignments only.
func (h *AssegnazioniHandler) ListAssegnazioni(w http.ResponseWriter, r *http.Request) {
	req := service.ListAssegnazioniRequest{
		IDCamera:   queryIntPtr(r, "id_camera"),
		Matricola:  strings.TrimSpace(r.URL.Query().Get("matricola")),
		SoloAttive: r.URL.Query().Get("attive") != "false",
	}

	resp, err := h.allocator.ListAssegnazioni(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, resp.Count, resp.Assegnazioni)
}

// GetAssegnazione GET /api/assegnazioni/:id
func (h *AssegnazioniHandler) GetAssegnazione(w http.ResponseWriter, r *http.Request, id int) {
	a, err := h.allocator.GetAssegnazione(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

// GetOccupazioneCamera GET /api/assegnazioni/camera/:id_camera
func (h *AssegnazioniHandler) GetOccupazioneCamera(w http.ResponseWriter, r *http.Request, idCamera int) {
	occ, err := h.allocator.GetOccupazioneCamera(r.Context(), idCamera)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, occ)
}

// CreateAssegnazione POST /api/assegnazioni
func (h *AssegnazioniHandler) CreateAssegnazione(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MatricolaAlloggiato string `json:"matricola_alloggiato"`
		IDCamera            int    `json:"id_camera"`
		DataAssegnazione    string `json:"data_assegnazione"`
		Note                string `json:"note"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid create assegnazione body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	a, err := h.allocator.Assign(r.Context(), service.AssignRequest{
		Matricola:        body.MatricolaAlloggiato,
		IDCamera:         body.IDCamera,
		DataAssegnazione: parseDate(body.DataAssegnazione),
		Note:             body.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Assegnazione creata con successo", a)
}

// SpostaAlloggiato POST /api/assegnazioni/sposta
func (h *AssegnazioniHandler) SpostaAlloggiato(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MatricolaAlloggiato  string `json:"matricola_alloggiato"`
		IDCameraDestinazione int    `json:"id_camera_destinazione"`
		Note                 string `json:"note"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid sposta body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	res, err := h.allocator.Move(r.Context(), service.MoveRequest{
		Matricola:            body.MatricolaAlloggiato,
		IDCameraDestinazione: body.IDCameraDestinazione,
		Note:                 body.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{
		Success:          true,
		Message:          "Alloggiato spostato con successo",
		Data:             res.Assegnazione,
		CameraPrecedente: res.CameraPrecedente,
		CameraNuova:      res.CameraNuova,
	})
}

// DeleteAssegnazione DELETE /api/assegnazioni/:id
// Removes an active assignment without touching the history.
func (h *AssegnazioniHandler) DeleteAssegnazione(w http.ResponseWriter, r *http.Request, id int) {
	res, err := h.allocator.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Alloggiato rimosso dalla camera con successo", map[string]string{
		"matricola_alloggiato": res.Matricola,
		"numero_camera":        res.NumeroCamera,
	})
}

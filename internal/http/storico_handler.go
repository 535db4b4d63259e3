package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// StoricoHandler history endpoints plus the close-and-archive operation
// that feeds them. Deleting a history record requires the admin flag.
type StoricoHandler struct {
	allocator service.AllocatorService
	storico   service.StoricoService
	auth      service.AuthService
	logger    *zap.Logger
}

func NewStoricoHandler(allocator service.AllocatorService, storico service.StoricoService, auth service.AuthService, logger *zap.Logger) *StoricoHandler {
	return &StoricoHandler{
		allocator: allocator,
		storico:   storico,
		auth:      auth,
		logger:    logger,
	}
}

func (h *StoricoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/storico-assegnazioni/sposta-in-storico" && r.Method == http.MethodPost:
		h.SpostaInStorico(w, r)
	case path == "/api/storico-assegnazioni" && r.Method == http.MethodGet:
		h.ListStorico(w, r)
	case path == "/api/storico-assegnazioni/stats" && r.Method == http.MethodGet:
		h.GetStats(w, r)
	case path == "/api/storico-assegnazioni/export" && r.Method == http.MethodGet:
		h.ExportStorico(w, r)
	case strings.HasPrefix(path, "/api/storico-assegnazioni/militare/") && r.Method == http.MethodGet:
		matricola := strings.TrimPrefix(path, "/api/storico-assegnazioni/militare/")
		if matricola == "" || strings.Contains(matricola, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.ListStoricoMilitare(w, r, matricola)
	case strings.HasPrefix(path, "/api/storico-assegnazioni/camera/") && r.Method == http.MethodGet:
		idCamera := parseInt(strings.TrimPrefix(path, "/api/storico-assegnazioni/camera/"), 0)
		if idCamera <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.ListStoricoCamera(w, r, idCamera)
	case strings.HasPrefix(path, "/api/storico-assegnazioni/") && r.Method == http.MethodGet:
		id := parseInt(strings.TrimPrefix(path, "/api/storico-assegnazioni/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetStorico(w, r, id)
	case strings.HasPrefix(path, "/api/storico-assegnazioni/") && r.Method == http.MethodDelete:
		id := parseInt(strings.TrimPrefix(path, "/api/storico-assegnazioni/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.DeleteStorico(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SpostaInStorico POST /api/storico-assegnazioni/sposta-in-storico
// Closes the assignment and snapshots it into the history in one
// transaction. inserito_da is the authenticated operator.
func (h *StoricoHandler) SpostaInStorico(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDAssegnazione int    `json:"id_assegnazione"`
		DataUscita     string `json:"data_uscita"`
		Note           string `json:"note"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid sposta-in-storico body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	rec, err := h.allocator.Close(r.Context(), service.CloseRequest{
		IDAssegnazione: body.IDAssegnazione,
		DataUscita:     parseDate(body.DataUscita),
		Note:           body.Note,
		InseritoDa:     identityFrom(r).Username,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Militare rimosso dalla camera e spostato nello storico", rec)
}

// ListStorico GET /api/storico-assegnazioni with optional filters.
func (h *StoricoHandler) ListStorico(w http.ResponseWriter, r *http.Request) {
	resp, err := h.storico.ListStorico(r.Context(), storicoListRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, resp.Count, resp.Storico)
}

// ListStoricoMilitare GET /api/storico-assegnazioni/militare/:matricola
func (h *StoricoHandler) ListStoricoMilitare(w http.ResponseWriter, r *http.Request, matricola string) {
	resp, err := h.storico.ListStorico(r.Context(), service.ListStoricoRequest{Matricola: matricola})
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, resp.Count, resp.Storico)
}

// ListStoricoCamera GET /api/storico-assegnazioni/camera/:id_camera
func (h *StoricoHandler) ListStoricoCamera(w http.ResponseWriter, r *http.Request, idCamera int) {
	resp, err := h.storico.ListStorico(r.Context(), service.ListStoricoRequest{IDCamera: &idCamera})
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, resp.Count, resp.Storico)
}

// GetStorico GET /api/storico-assegnazioni/:id
func (h *StoricoHandler) GetStorico(w http.ResponseWriter, r *http.Request, id int) {
	rec, err := h.storico.GetStorico(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

// GetStats GET /api/storico-assegnazioni/stats?anno=&mese=
func (h *StoricoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.storico.GetStats(r.Context(), service.StoricoStatsRequest{
		Anno: parseInt(r.URL.Query().Get("anno"), 0),
		Mese: parseInt(r.URL.Query().Get("mese"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// ExportStorico GET /api/storico-assegnazioni/export
// Same filters as the list, result as an xlsx attachment.
func (h *StoricoHandler) ExportStorico(w http.ResponseWriter, r *http.Request) {
	resp, err := h.storico.ListStorico(r.Context(), storicoListRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := GenerateStoricoExport(resp.Storico)
	if err != nil {
		h.logger.Error("storico export failed", zap.Error(err))
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("storico_assegnazioni_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteStorico DELETE /api/storico-assegnazioni/:id (admin only)
func (h *StoricoHandler) DeleteStorico(w http.ResponseWriter, r *http.Request, id int) {
	identity := identityFrom(r)
	admin, err := h.auth.IsAdmin(r.Context(), identity.Username)
	if err != nil {
		h.logger.Error("admin check failed", zap.String("username", identity.Username), zap.Error(err))
		writeError(w, err)
		return
	}
	if !admin {
		writeJSON(w, http.StatusForbidden, Result{Error: "operazione riservata agli amministratori"})
		return
	}

	if err := h.storico.DeleteStorico(r.Context(), id, identity.Username); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Record eliminato dallo storico", nil)
}

func storicoListRequest(r *http.Request) service.ListStoricoRequest {
	q := r.URL.Query()
	return service.ListStoricoRequest{
		Matricola:     strings.TrimSpace(q.Get("matricola")),
		IDCamera:      queryIntPtr(r, "id_camera"),
		NumeroCamera:  strings.TrimSpace(q.Get("numero_camera")),
		Grado:         strings.TrimSpace(q.Get("grado")),
		Edificio:      strings.TrimSpace(q.Get("edificio")),
		DataEntrataDa: queryDatePtr(r, "data_entrata_da"),
		DataEntrataA:  queryDatePtr(r, "data_entrata_a"),
		DataUscitaDa:  queryDatePtr(r, "data_uscita_da"),
		DataUscitaA:   queryDatePtr(r, "data_uscita_a"),
	}
}

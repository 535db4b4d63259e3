package httpapi

import (
	"net/http"
	"strings"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// CamereHandler room endpoints. The list always carries the computed
// occupancy fields next to the static room data.
type CamereHandler struct {
	camere service.CameraService
	logger *zap.Logger
}

func NewCamereHandler(camere service.CameraService, logger *zap.Logger) *CamereHandler {
	return &CamereHandler{camere: camere, logger: logger}
}

func (h *CamereHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/camere" && r.Method == http.MethodGet:
		h.ListCamere(w, r, false)
	case path == "/api/camere" && r.Method == http.MethodPost:
		h.CreateCamera(w, r)
	// fixed segments before the :id match
	case path == "/api/camere/disponibili" && r.Method == http.MethodGet:
		h.ListCamere(w, r, true)
	case path == "/api/camere/stats" && r.Method == http.MethodGet:
		h.GetStats(w, r)
	case strings.HasPrefix(path, "/api/camere/") && r.Method == http.MethodGet:
		id := parseInt(strings.TrimPrefix(path, "/api/camere/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetCamera(w, r, id)
	case strings.HasPrefix(path, "/api/camere/") && r.Method == http.MethodPut:
		id := parseInt(strings.TrimPrefix(path, "/api/camere/"), 0)
		if id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.UpdateCamera(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ListCamere GET /api/camere and GET /api/camere/disponibili
func (h *CamereHandler) ListCamere(w http.ResponseWriter, r *http.Request, soloDisponibili bool) {
	q := r.URL.Query()
	req := service.ListCamereRequest{
		Edificio:        strings.TrimSpace(q.Get("edificio")),
		Piano:           queryIntPtr(r, "piano"),
		Genere:          strings.TrimSpace(q.Get("genere")),
		IDCategoria:     queryIntPtr(r, "id_categoria"),
		SoloDisponibili: soloDisponibili || queryBool(r, "disponibili"),
	}

	resp, err := h.camere.ListCamere(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, resp.Count, resp.Camere)
}

// GetCamera GET /api/camere/:id
// Returns the room with its occupancy and the active assignments.
func (h *CamereHandler) GetCamera(w http.ResponseWriter, r *http.Request, id int) {
	occ, err := h.camere.GetOccupazione(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, occ)
}

// GetStats GET /api/camere/stats
func (h *CamereHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.camere.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

type cameraBody struct {
	NumeroCamera string `json:"numero_camera"`
	Piano        *int   `json:"piano"`
	Ala          string `json:"ala"`
	Edificio     string `json:"edificio"`
	NrPosti      int    `json:"nr_posti"`
	Genere       string `json:"genere"`
	IDCategoria  int    `json:"id_categoria"`
	Note         string `json:"note"`
	Agibile      *bool  `json:"agibile"`
	Manutenzione *bool  `json:"manutenzione"`
}

func (b cameraBody) toRequest() service.SaveCameraRequest {
	return service.SaveCameraRequest{
		NumeroCamera: b.NumeroCamera,
		Piano:        b.Piano,
		Ala:          b.Ala,
		Edificio:     b.Edificio,
		NrPosti:      b.NrPosti,
		Genere:       b.Genere,
		IDCategoria:  b.IDCategoria,
		Note:         b.Note,
		Agibile:      b.Agibile,
		Manutenzione: b.Manutenzione,
	}
}

// CreateCamera POST /api/camere
func (h *CamereHandler) CreateCamera(w http.ResponseWriter, r *http.Request) {
	var body cameraBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid create camera body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	c, err := h.camere.CreateCamera(r.Context(), body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Camera creata con successo", c)
}

// UpdateCamera PUT /api/camere/:id
func (h *CamereHandler) UpdateCamera(w http.ResponseWriter, r *http.Request, id int) {
	var body cameraBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		h.logger.Warn("invalid update camera body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Result{Error: "corpo della richiesta non valido"})
		return
	}

	c, err := h.camere.UpdateCamera(r.Context(), id, body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Camera aggiornata con successo", c)
}

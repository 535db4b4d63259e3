package httpapi

import (
	"errors"
	"net/http"

	"caserma-alloggi/internal/domain"
)

// Result is the response envelope. Success responses carry data and
// optionally count/message; failures carry error plus the operation
// specific fields (required, id_assegnazione_esistente, posti_*,
// camera_precedente/camera_nuova).
type Result struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`

	Required               []string `json:"required,omitempty"`
	ExistingAssignmentID   *int     `json:"id_assegnazione_esistente,omitempty"`
	PostiTotali            *int     `json:"posti_totali,omitempty"`
	PostiOccupati          *int     `json:"posti_occupati,omitempty"`
	CameraPrecedente       string   `json:"camera_precedente,omitempty"`
	CameraNuova            string   `json:"camera_nuova,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Result{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, Result{Success: true, Count: &count, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Result{Success: true, Message: message, Data: data})
}

// writeError maps the domain error taxonomy onto the wire: validation,
// conflict and capacity failures are 400 with their extra fields, unknown
// entities are 404, anything else is a 500 with a generic message (the
// detail is only logged, never exposed).
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, Result{
			Error:    ve.Reason,
			Required: ve.Required,
		})
		return
	}

	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		res := Result{Error: ce.Reason}
		if ce.ExistingAssignmentID > 0 {
			id := ce.ExistingAssignmentID
			res.ExistingAssignmentID = &id
		}
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	var cpe *domain.CapacityError
	if errors.As(err, &cpe) {
		totali, occupati := cpe.PostiTotali, cpe.PostiOccupati
		writeJSON(w, http.StatusBadRequest, Result{
			Error:         cpe.Error(),
			PostiTotali:   &totali,
			PostiOccupati: &occupati,
		})
		return
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		writeJSON(w, http.StatusNotFound, Result{Error: nf.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, Result{Error: "errore interno del server"})
}

package httpapi

import (
	"net/http"
	"strings"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// DirectoryHandler personnel directory lookups, backed by the external
// directory service (or its development stub).
type DirectoryHandler struct {
	directory *service.DirectoryClient
	logger    *zap.Logger
}

func NewDirectoryHandler(directory *service.DirectoryClient, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, logger: logger}
}

func (h *DirectoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/ad/test", "/api/ad/testConnection":
		h.TestConnection(w, r)
	case "/api/ad/search":
		h.Search(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// TestConnection GET /api/ad/test and /api/ad/testConnection
func (h *DirectoryHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.TestConnection(r.Context()); err != nil {
		h.logger.Warn("directory connection test failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Result{Error: "servizio directory non raggiungibile"})
		return
	}
	writeMessage(w, http.StatusOK, "Connessione al servizio directory riuscita", nil)
}

// Search GET /api/ad/search?term=
func (h *DirectoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	entries, err := h.directory.Search(r.Context(), term)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, len(entries), entries)
}

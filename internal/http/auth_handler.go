package httpapi

import (
	"net/http"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// AuthHandler identity endpoints for the frontend: who am I, am I admin.
type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/auth/user":
		h.GetUser(w, r)
	case "/api/auth/isAdmin":
		h.GetIsAdmin(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GetUser GET /api/auth/user
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, identityFrom(r))
}

// GetIsAdmin GET /api/auth/isAdmin
func (h *AuthHandler) GetIsAdmin(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	admin, err := h.auth.IsAdmin(r.Context(), identity.Username)
	if err != nil {
		h.logger.Error("admin check failed", zap.String("username", identity.Username), zap.Error(err))
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"username": identity.Username,
		"isAdmin":  admin,
	})
}

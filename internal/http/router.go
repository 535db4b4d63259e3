package httpapi

import (
	"net/http"
	"time"

	"caserma-alloggi/internal/service"

	"go.uber.org/zap"
)

// Router standard library http.ServeMux behind the middleware chain.
// Every /api route except /api/health goes through the auth middleware.
type Router struct {
	mux    *http.ServeMux
	auth   service.AuthService
	logger *zap.Logger
}

func NewRouter(auth service.AuthService, logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		auth:   auth,
		logger: logger,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the full chain: CORS, request logging, then the mux.
func (r *Router) Handler() http.Handler {
	return CORSMiddleware(LoggingMiddleware(r.logger, r.mux))
}

func (r *Router) protected(h http.Handler) http.Handler {
	return AuthMiddleware(r.auth, h)
}

// RegisterHealth liveness probe, reachable without authentication.
func (r *Router) RegisterHealth() {
	r.mux.HandleFunc("/api/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.mux.Handle("/api/auth/", r.protected(h))
}

func (r *Router) RegisterDirectoryRoutes(h *DirectoryHandler) {
	r.mux.Handle("/api/ad/", r.protected(h))
}

func (r *Router) RegisterAnagraficaRoutes(h *AnagraficaHandler) {
	r.mux.Handle("/api/categorie", r.protected(h))
	r.mux.Handle("/api/categorie/", r.protected(h))
	r.mux.Handle("/api/gradi", r.protected(h))
	r.mux.Handle("/api/gradi/", r.protected(h))
}

func (r *Router) RegisterCamereRoutes(h *CamereHandler) {
	r.mux.Handle("/api/camere", r.protected(h))
	r.mux.Handle("/api/camere/", r.protected(h))
}

func (r *Router) RegisterAlloggiatiRoutes(h *AlloggiatiHandler) {
	r.mux.Handle("/api/alloggiati", r.protected(h))
	r.mux.Handle("/api/alloggiati/", r.protected(h))
}

func (r *Router) RegisterAssegnazioniRoutes(h *AssegnazioniHandler) {
	r.mux.Handle("/api/assegnazioni", r.protected(h))
	r.mux.Handle("/api/assegnazioni/", r.protected(h))
}

func (r *Router) RegisterStoricoRoutes(h *StoricoHandler) {
	r.mux.Handle("/api/storico-assegnazioni", r.protected(h))
	r.mux.Handle("/api/storico-assegnazioni/", r.protected(h))
}

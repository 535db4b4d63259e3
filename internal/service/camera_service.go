package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"go.uber.org/zap"
)

// CameraService room CRUD and occupancy reporting.
type CameraService interface {
	ListCamere(ctx context.Context, req ListCamereRequest) (*ListCamereResponse, error)
	GetCamera(ctx context.Context, id int) (*domain.Camera, error)
	GetOccupazione(ctx context.Context, id int) (*domain.CameraOccupazione, error)
	CreateCamera(ctx context.Context, req SaveCameraRequest) (*domain.Camera, error)
	UpdateCamera(ctx context.Context, id int, req SaveCameraRequest) (*domain.Camera, error)
	GetStats(ctx context.Context) (*CamereStats, error)
}

type cameraService struct {
	camereRepo    repository.CamereRepository
	categorieRepo repository.CategorieRepository
	logger        *zap.Logger
}

func NewCameraService(camereRepo repository.CamereRepository, categorieRepo repository.CategorieRepository, logger *zap.Logger) CameraService {
	return &cameraService{
		camereRepo:    camereRepo,
		categorieRepo: categorieRepo,
		logger:        logger,
	}
}

type ListCamereRequest struct {
	Edificio        string
	Piano           *int
	Genere          string
	IDCategoria     *int
	SoloDisponibili bool
}

type ListCamereResponse struct {
	Camere []*domain.CameraConDisponibilita
	Count  int
}

// SaveCameraRequest create/update payload. Agibile defaults true on
// create when the field is absent.
type SaveCameraRequest struct {
	NumeroCamera string
	Piano        *int
	Ala          string
	Edificio     string
	NrPosti      int
	Genere       string
	IDCategoria  int
	Note         string
	Agibile      *bool
	Manutenzione *bool
}

// CamereStats aggregate room counts for the dashboard.
type CamereStats struct {
	Generale     CamereStatsGenerale    `json:"generale"`
	PerCategoria []CamereStatsCategoria `json:"per_categoria"`
}

type CamereStatsGenerale struct {
	TotaleCamere         int `json:"totale_camere"`
	TotalePosti          int `json:"totale_posti"`
	PostiOccupati        int `json:"posti_occupati"`
	PostiLiberi          int `json:"posti_liberi"`
	CamereLibere         int `json:"camere_libere"`
	CamereParziali       int `json:"camere_parziali"`
	CamereComplete       int `json:"camere_complete"`
	CamereNonAgibili     int `json:"camere_non_agibili"`
	CamereInManutenzione int `json:"camere_in_manutenzione"`
}

type CamereStatsCategoria struct {
	Categoria     string `json:"categoria"`
	TotaleCamere  int    `json:"totale_camere"`
	TotalePosti   int    `json:"totale_posti"`
	PostiOccupati int    `json:"posti_occupati"`
	PostiLiberi   int    `json:"posti_liberi"`
}

func (s *cameraService) ListCamere(ctx context.Context, req ListCamereRequest) (*ListCamereResponse, error) {
	list, err := s.camereRepo.ListCamere(ctx, repository.CamereFilter{
		Edificio:        req.Edificio,
		Piano:           req.Piano,
		Genere:          req.Genere,
		IDCategoria:     req.IDCategoria,
		SoloDisponibili: req.SoloDisponibili,
	})
	if err != nil {
		s.logger.Error("list camere failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list camere: %w", err)
	}
	return &ListCamereResponse{Camere: list, Count: len(list)}, nil
}

func (s *cameraService) GetCamera(ctx context.Context, id int) (*domain.Camera, error) {
	return s.camereRepo.GetCamera(ctx, id)
}

func (s *cameraService) GetOccupazione(ctx context.Context, id int) (*domain.CameraOccupazione, error) {
	return s.camereRepo.GetOccupazione(ctx, id)
}

func (s *cameraService) validate(ctx context.Context, req *SaveCameraRequest) error {
	missing := []string{}
	req.NumeroCamera = strings.TrimSpace(req.NumeroCamera)
	req.Edificio = strings.TrimSpace(req.Edificio)
	if req.NumeroCamera == "" {
		missing = append(missing, "numero_camera")
	}
	if req.Piano == nil {
		missing = append(missing, "piano")
	}
	if req.Edificio == "" {
		missing = append(missing, "edificio")
	}
	if req.NrPosti < 1 {
		missing = append(missing, "nr_posti")
	}
	if req.Genere == "" {
		missing = append(missing, "genere")
	}
	if req.IDCategoria <= 0 {
		missing = append(missing, "id_categoria")
	}
	if len(missing) > 0 {
		return domain.NewMissingFieldsError(missing...)
	}
	if req.Genere != "M" && req.Genere != "F" && req.Genere != "Misto" {
		return domain.NewValidationError("Genere deve essere M, F o Misto")
	}
	if _, err := s.categorieRepo.GetCategoria(ctx, req.IDCategoria); err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.NewValidationError("Categoria non valida")
		}
		return err
	}
	return nil
}

func (s *cameraService) CreateCamera(ctx context.Context, req SaveCameraRequest) (*domain.Camera, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}

	if _, err := s.camereRepo.GetCameraByNumero(ctx, req.NumeroCamera); err == nil {
		return nil, &domain.ConflictError{Reason: fmt.Sprintf("Il numero camera \"%s\" è già in uso", req.NumeroCamera)}
	} else {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	c := &domain.Camera{
		NumeroCamera: req.NumeroCamera,
		Piano:        *req.Piano,
		Ala:          strings.TrimSpace(req.Ala),
		Edificio:     req.Edificio,
		NrPosti:      req.NrPosti,
		Genere:       req.Genere,
		IDCategoria:  req.IDCategoria,
		Note:         strings.TrimSpace(req.Note),
		Agibile:      true,
	}
	if req.Agibile != nil {
		c.Agibile = *req.Agibile
	}
	if req.Manutenzione != nil {
		c.Manutenzione = *req.Manutenzione
	}

	id, err := s.camereRepo.CreateCamera(ctx, c)
	if err != nil {
		s.logger.Error("create camera failed", zap.String("numero_camera", c.NumeroCamera), zap.Error(err))
		return nil, err
	}
	s.logger.Info("camera creata", zap.Int("id", id), zap.String("numero_camera", c.NumeroCamera))
	return s.camereRepo.GetCamera(ctx, id)
}

func (s *cameraService) UpdateCamera(ctx context.Context, id int, req SaveCameraRequest) (*domain.Camera, error) {
	esistente, err := s.camereRepo.GetCamera(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}

	if req.NumeroCamera != esistente.NumeroCamera {
		if altra, err := s.camereRepo.GetCameraByNumero(ctx, req.NumeroCamera); err == nil && altra.ID != id {
			return nil, &domain.ConflictError{Reason: fmt.Sprintf("Il numero camera \"%s\" è già in uso", req.NumeroCamera)}
		} else if err != nil {
			var nf *domain.NotFoundError
			if !errors.As(err, &nf) {
				return nil, err
			}
		}
	}

	c := &domain.Camera{
		ID:           id,
		NumeroCamera: req.NumeroCamera,
		Piano:        *req.Piano,
		Ala:          strings.TrimSpace(req.Ala),
		Edificio:     req.Edificio,
		NrPosti:      req.NrPosti,
		Genere:       req.Genere,
		IDCategoria:  req.IDCategoria,
		Note:         strings.TrimSpace(req.Note),
		Agibile:      esistente.Agibile,
		Manutenzione: esistente.Manutenzione,
	}
	if req.Agibile != nil {
		c.Agibile = *req.Agibile
	}
	if req.Manutenzione != nil {
		c.Manutenzione = *req.Manutenzione
	}

	if err := s.camereRepo.UpdateCamera(ctx, c); err != nil {
		s.logger.Error("update camera failed", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("camera aggiornata", zap.Int("id", id), zap.String("numero_camera", c.NumeroCamera))
	return s.camereRepo.GetCamera(ctx, id)
}

func (s *cameraService) GetStats(ctx context.Context) (*CamereStats, error) {
	list, err := s.camereRepo.ListCamere(ctx, repository.CamereFilter{})
	if err != nil {
		s.logger.Error("camere stats failed", zap.Error(err))
		return nil, fmt.Errorf("failed to compute camere stats: %w", err)
	}

	stats := &CamereStats{PerCategoria: []CamereStatsCategoria{}}
	perCategoria := map[string]*CamereStatsCategoria{}
	codici := []string{}
	for _, c := range list {
		stats.Generale.TotaleCamere++
		stats.Generale.TotalePosti += c.NrPosti
		stats.Generale.PostiOccupati += c.PostiOccupati
		switch c.Stato {
		case domain.StatoLibera:
			stats.Generale.CamereLibere++
		case domain.StatoParziale:
			stats.Generale.CamereParziali++
		default:
			stats.Generale.CamereComplete++
		}
		if !c.Agibile {
			stats.Generale.CamereNonAgibili++
		}
		if c.Manutenzione {
			stats.Generale.CamereInManutenzione++
		}
		if c.Categoria != nil {
			sc, ok := perCategoria[c.Categoria.Codice]
			if !ok {
				sc = &CamereStatsCategoria{Categoria: c.Categoria.Descrizione}
				perCategoria[c.Categoria.Codice] = sc
				codici = append(codici, c.Categoria.Codice)
			}
			sc.TotaleCamere++
			sc.TotalePosti += c.NrPosti
			sc.PostiOccupati += c.PostiOccupati
			sc.PostiLiberi += c.NrPosti - c.PostiOccupati
		}
	}
	stats.Generale.PostiLiberi = stats.Generale.TotalePosti - stats.Generale.PostiOccupati
	sort.Strings(codici)
	for _, codice := range codici {
		stats.PerCategoria = append(stats.PerCategoria, *perCategoria[codice])
	}
	return stats, nil
}

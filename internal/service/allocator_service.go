package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"go.uber.org/zap"
)

// AllocatorService assignment lifecycle: assign, move, close (archive),
// delete. All invariants are enforced by the transactional repository;
// the service validates input shape and owns logging.
type AllocatorService interface {
	ListAssegnazioni(ctx context.Context, req ListAssegnazioniRequest) (*ListAssegnazioniResponse, error)
	GetAssegnazione(ctx context.Context, id int) (*domain.Assegnazione, error)
	GetOccupazioneCamera(ctx context.Context, idCamera int) (*domain.CameraOccupazione, error)

	Assign(ctx context.Context, req AssignRequest) (*domain.Assegnazione, error)
	Move(ctx context.Context, req MoveRequest) (*repository.MoveResult, error)
	Close(ctx context.Context, req CloseRequest) (*domain.StoricoAssegnazione, error)
	Delete(ctx context.Context, id int) (*repository.DeleteResult, error)
}

type allocatorService struct {
	assegnRepo repository.AssegnazioniRepository
	camereRepo repository.CamereRepository
	logger     *zap.Logger
}

func NewAllocatorService(assegnRepo repository.AssegnazioniRepository, camereRepo repository.CamereRepository, logger *zap.Logger) AllocatorService {
	return &allocatorService{
		assegnRepo: assegnRepo,
		camereRepo: camereRepo,
		logger:     logger,
	}
}

// ListAssegnazioniRequest list filters. Attive defaults to true at the
// HTTP layer; here it is explicit.
type ListAssegnazioniRequest struct {
	IDCamera   *int
	Matricola  string
	SoloAttive bool
}

type ListAssegnazioniResponse struct {
	Assegnazioni []*domain.Assegnazione
	Count        int
}

// AssignRequest new assignment. DataAssegnazione zero means today.
type AssignRequest struct {
	Matricola        string
	IDCamera         int
	DataAssegnazione time.Time
	Note             string
}

// MoveRequest room change for an already assigned alloggiato.
type MoveRequest struct {
	Matricola            string
	IDCameraDestinazione int
	Note                 string
}

// CloseRequest closes the assignment and archives it. InseritoDa is the
// authenticated operator.
type CloseRequest struct {
	IDAssegnazione int
	DataUscita     time.Time
	Note           string
	InseritoDa     string
}

func (s *allocatorService) ListAssegnazioni(ctx context.Context, req ListAssegnazioniRequest) (*ListAssegnazioniResponse, error) {
	list, err := s.assegnRepo.ListAssegnazioni(ctx, repository.AssegnazioniFilter{
		IDCamera:   req.IDCamera,
		Matricola:  req.Matricola,
		SoloAttive: req.SoloAttive,
	})
	if err != nil {
		s.logger.Error("list assegnazioni failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list assegnazioni: %w", err)
	}
	return &ListAssegnazioniResponse{Assegnazioni: list, Count: len(list)}, nil
}

func (s *allocatorService) GetAssegnazione(ctx context.Context, id int) (*domain.Assegnazione, error) {
	return s.assegnRepo.GetAssegnazione(ctx, id)
}

func (s *allocatorService) GetOccupazioneCamera(ctx context.Context, idCamera int) (*domain.CameraOccupazione, error) {
	return s.camereRepo.GetOccupazione(ctx, idCamera)
}

func (s *allocatorService) Assign(ctx context.Context, req AssignRequest) (*domain.Assegnazione, error) {
	missing := []string{}
	if strings.TrimSpace(req.Matricola) == "" {
		missing = append(missing, "matricola_alloggiato")
	}
	if req.IDCamera <= 0 {
		missing = append(missing, "id_camera")
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingFieldsError(missing...)
	}

	a, err := s.assegnRepo.Assign(ctx, strings.TrimSpace(req.Matricola), req.IDCamera, req.DataAssegnazione, req.Note)
	if err != nil {
		s.logger.Warn("assign failed",
			zap.String("matricola", req.Matricola),
			zap.Int("id_camera", req.IDCamera),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("alloggiato assegnato",
		zap.String("matricola", a.MatricolaAlloggiato),
		zap.Int("id_camera", a.IDCamera),
		zap.Int("id_assegnazione", a.ID))
	return a, nil
}

func (s *allocatorService) Move(ctx context.Context, req MoveRequest) (*repository.MoveResult, error) {
	missing := []string{}
	if strings.TrimSpace(req.Matricola) == "" {
		missing = append(missing, "matricola_alloggiato")
	}
	if req.IDCameraDestinazione <= 0 {
		missing = append(missing, "id_camera_destinazione")
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingFieldsError(missing...)
	}

	res, err := s.assegnRepo.Move(ctx, strings.TrimSpace(req.Matricola), req.IDCameraDestinazione, req.Note)
	if err != nil {
		s.logger.Warn("move failed",
			zap.String("matricola", req.Matricola),
			zap.Int("id_camera_destinazione", req.IDCameraDestinazione),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("alloggiato spostato",
		zap.String("matricola", req.Matricola),
		zap.String("camera_precedente", res.CameraPrecedente),
		zap.String("camera_nuova", res.CameraNuova))
	return res, nil
}

func (s *allocatorService) Close(ctx context.Context, req CloseRequest) (*domain.StoricoAssegnazione, error) {
	missing := []string{}
	if req.IDAssegnazione <= 0 {
		missing = append(missing, "id_assegnazione")
	}
	if req.DataUscita.IsZero() {
		missing = append(missing, "data_uscita")
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingFieldsError(missing...)
	}

	rec, err := s.assegnRepo.Close(ctx, req.IDAssegnazione, req.DataUscita, req.Note, req.InseritoDa)
	if err != nil {
		s.logger.Warn("close failed",
			zap.Int("id_assegnazione", req.IDAssegnazione),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("assegnazione archiviata",
		zap.Int("id_assegnazione", req.IDAssegnazione),
		zap.Int("id_storico", rec.ID),
		zap.String("matricola", rec.MatricolaAlloggiato))
	return rec, nil
}

func (s *allocatorService) Delete(ctx context.Context, id int) (*repository.DeleteResult, error) {
	res, err := s.assegnRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Warn("delete assegnazione failed", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("assegnazione eliminata senza storico",
		zap.Int("id", id),
		zap.String("matricola", res.Matricola),
		zap.String("numero_camera", res.NumeroCamera))
	return res, nil
}

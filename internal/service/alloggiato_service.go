package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"go.uber.org/zap"
)

// AlloggiatoService resident registry CRUD.
type AlloggiatoService interface {
	ListAlloggiati(ctx context.Context, req ListAlloggiatiRequest) (*ListAlloggiatiResponse, error)
	GetAlloggiato(ctx context.Context, matricola string) (*domain.AlloggiatoConCamera, error)
	CreateAlloggiato(ctx context.Context, req SaveAlloggiatoRequest) (*domain.Alloggiato, error)
	UpdateAlloggiato(ctx context.Context, matricola string, req SaveAlloggiatoRequest) (*domain.Alloggiato, error)
	DeleteAlloggiato(ctx context.Context, matricola string) error
	GetStats(ctx context.Context) (*AlloggiatiStats, error)
}

type alloggiatoService struct {
	alloggiatiRepo repository.AlloggiatiRepository
	gradiRepo      repository.GradiRepository
	logger         *zap.Logger
}

func NewAlloggiatoService(alloggiatiRepo repository.AlloggiatiRepository, gradiRepo repository.GradiRepository, logger *zap.Logger) AlloggiatoService {
	return &alloggiatoService{
		alloggiatiRepo: alloggiatiRepo,
		gradiRepo:      gradiRepo,
		logger:         logger,
	}
}

type ListAlloggiatiRequest struct {
	IDGrado     *int
	IDCategoria *int
	Cognome     string
	Reparto     string
	ConCamera   bool
	SenzaCamera bool
}

type ListAlloggiatiResponse struct {
	Alloggiati []*domain.AlloggiatoConCamera
	Count      int
}

type SaveAlloggiatoRequest struct {
	Matricola          string
	IDGrado            int
	Cognome            string
	Nome               string
	Telefono           string
	CodiceReparto      string
	DescrizioneReparto string
}

// AlloggiatiStats resident counts for the dashboard. PerCategoria is
// keyed by categoria codice.
type AlloggiatiStats struct {
	Generale     AlloggiatiStatsGenerale              `json:"generale"`
	PerCategoria map[string]*AlloggiatiStatsCategoria `json:"per_categoria"`
}

type AlloggiatiStatsGenerale struct {
	TotaleAlloggiati int `json:"totale_alloggiati"`
	ConCamera        int `json:"con_camera"`
	SenzaCamera      int `json:"senza_camera"`
}

type AlloggiatiStatsCategoria struct {
	Categoria   string `json:"categoria"`
	Totale      int    `json:"totale"`
	ConCamera   int    `json:"con_camera"`
	SenzaCamera int    `json:"senza_camera"`
}

func (s *alloggiatoService) ListAlloggiati(ctx context.Context, req ListAlloggiatiRequest) (*ListAlloggiatiResponse, error) {
	list, err := s.alloggiatiRepo.ListAlloggiati(ctx, repository.AlloggiatiFilter{
		IDGrado:     req.IDGrado,
		IDCategoria: req.IDCategoria,
		Cognome:     req.Cognome,
		Reparto:     req.Reparto,
		ConCamera:   req.ConCamera,
		SenzaCamera: req.SenzaCamera,
	})
	if err != nil {
		s.logger.Error("list alloggiati failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list alloggiati: %w", err)
	}
	return &ListAlloggiatiResponse{Alloggiati: list, Count: len(list)}, nil
}

func (s *alloggiatoService) GetAlloggiato(ctx context.Context, matricola string) (*domain.AlloggiatoConCamera, error) {
	return s.alloggiatiRepo.GetAlloggiatoConCamera(ctx, strings.TrimSpace(matricola))
}

func (s *alloggiatoService) validate(ctx context.Context, req *SaveAlloggiatoRequest, richiedeMatricola bool) error {
	req.Matricola = strings.ToUpper(strings.TrimSpace(req.Matricola))
	req.Cognome = strings.TrimSpace(req.Cognome)
	req.Nome = strings.TrimSpace(req.Nome)

	missing := []string{}
	if richiedeMatricola && req.Matricola == "" {
		missing = append(missing, "matricola")
	}
	if req.IDGrado <= 0 {
		missing = append(missing, "id_grado")
	}
	if req.Cognome == "" {
		missing = append(missing, "cognome")
	}
	if req.Nome == "" {
		missing = append(missing, "nome")
	}
	if len(missing) > 0 {
		return domain.NewMissingFieldsError(missing...)
	}
	if _, err := s.gradiRepo.GetGrado(ctx, req.IDGrado); err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.NewValidationError("Grado non valido")
		}
		return err
	}
	return nil
}

func (s *alloggiatoService) CreateAlloggiato(ctx context.Context, req SaveAlloggiatoRequest) (*domain.Alloggiato, error) {
	if err := s.validate(ctx, &req, true); err != nil {
		return nil, err
	}

	if _, err := s.alloggiatiRepo.GetAlloggiato(ctx, req.Matricola); err == nil {
		return nil, &domain.ConflictError{Reason: fmt.Sprintf("La matricola \"%s\" è già in uso", req.Matricola)}
	} else {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	a := &domain.Alloggiato{
		Matricola:          req.Matricola,
		IDGrado:            req.IDGrado,
		Cognome:            req.Cognome,
		Nome:               req.Nome,
		Telefono:           strings.TrimSpace(req.Telefono),
		CodiceReparto:      strings.TrimSpace(req.CodiceReparto),
		DescrizioneReparto: strings.TrimSpace(req.DescrizioneReparto),
	}
	if err := s.alloggiatiRepo.CreateAlloggiato(ctx, a); err != nil {
		s.logger.Error("create alloggiato failed", zap.String("matricola", a.Matricola), zap.Error(err))
		return nil, err
	}
	s.logger.Info("alloggiato creato", zap.String("matricola", a.Matricola))
	return s.alloggiatiRepo.GetAlloggiato(ctx, a.Matricola)
}

func (s *alloggiatoService) UpdateAlloggiato(ctx context.Context, matricola string, req SaveAlloggiatoRequest) (*domain.Alloggiato, error) {
	matricola = strings.ToUpper(strings.TrimSpace(matricola))
	if _, err := s.alloggiatiRepo.GetAlloggiato(ctx, matricola); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &req, false); err != nil {
		return nil, err
	}

	a := &domain.Alloggiato{
		Matricola:          matricola,
		IDGrado:            req.IDGrado,
		Cognome:            req.Cognome,
		Nome:               req.Nome,
		Telefono:           strings.TrimSpace(req.Telefono),
		CodiceReparto:      strings.TrimSpace(req.CodiceReparto),
		DescrizioneReparto: strings.TrimSpace(req.DescrizioneReparto),
	}
	if err := s.alloggiatiRepo.UpdateAlloggiato(ctx, a); err != nil {
		s.logger.Error("update alloggiato failed", zap.String("matricola", matricola), zap.Error(err))
		return nil, err
	}
	s.logger.Info("alloggiato aggiornato", zap.String("matricola", matricola))
	return s.alloggiatiRepo.GetAlloggiato(ctx, matricola)
}

func (s *alloggiatoService) DeleteAlloggiato(ctx context.Context, matricola string) error {
	matricola = strings.ToUpper(strings.TrimSpace(matricola))
	if err := s.alloggiatiRepo.DeleteAlloggiato(ctx, matricola); err != nil {
		s.logger.Warn("delete alloggiato failed", zap.String("matricola", matricola), zap.Error(err))
		return err
	}
	s.logger.Info("alloggiato eliminato", zap.String("matricola", matricola))
	return nil
}

func (s *alloggiatoService) GetStats(ctx context.Context) (*AlloggiatiStats, error) {
	list, err := s.alloggiatiRepo.ListAlloggiati(ctx, repository.AlloggiatiFilter{})
	if err != nil {
		s.logger.Error("alloggiati stats failed", zap.Error(err))
		return nil, fmt.Errorf("failed to compute alloggiati stats: %w", err)
	}

	stats := &AlloggiatiStats{PerCategoria: map[string]*AlloggiatiStatsCategoria{}}
	for _, a := range list {
		stats.Generale.TotaleAlloggiati++
		if a.HaCamera {
			stats.Generale.ConCamera++
		} else {
			stats.Generale.SenzaCamera++
		}
		if a.Grado == nil || a.Grado.Categoria == nil {
			continue
		}
		sc, ok := stats.PerCategoria[a.Grado.Categoria.Codice]
		if !ok {
			sc = &AlloggiatiStatsCategoria{Categoria: a.Grado.Categoria.Descrizione}
			stats.PerCategoria[a.Grado.Categoria.Codice] = sc
		}
		sc.Totale++
		if a.HaCamera {
			sc.ConCamera++
		} else {
			sc.SenzaCamera++
		}
	}
	return stats, nil
}

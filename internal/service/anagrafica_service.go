package service

import (
	"context"
	"fmt"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"go.uber.org/zap"
)

// AnagraficaService read-only lookup tables: categorie and gradi. The
// tables are seeded by migration and never written through the API.
type AnagraficaService interface {
	ListCategorie(ctx context.Context) ([]*domain.Categoria, error)
	GetCategoria(ctx context.Context, id int) (*domain.Categoria, error)
	ListGradi(ctx context.Context, idCategoria int) ([]*domain.Grado, error)
	GetGrado(ctx context.Context, id int) (*domain.Grado, error)
}

type anagraficaService struct {
	categorieRepo repository.CategorieRepository
	gradiRepo     repository.GradiRepository
	logger        *zap.Logger
}

func NewAnagraficaService(categorieRepo repository.CategorieRepository, gradiRepo repository.GradiRepository, logger *zap.Logger) AnagraficaService {
	return &anagraficaService{
		categorieRepo: categorieRepo,
		gradiRepo:     gradiRepo,
		logger:        logger,
	}
}

func (s *anagraficaService) ListCategorie(ctx context.Context) ([]*domain.Categoria, error) {
	list, err := s.categorieRepo.ListCategorie(ctx)
	if err != nil {
		s.logger.Error("list categorie failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list categorie: %w", err)
	}
	return list, nil
}

func (s *anagraficaService) GetCategoria(ctx context.Context, id int) (*domain.Categoria, error) {
	return s.categorieRepo.GetCategoria(ctx, id)
}

func (s *anagraficaService) ListGradi(ctx context.Context, idCategoria int) ([]*domain.Grado, error) {
	list, err := s.gradiRepo.ListGradi(ctx, idCategoria)
	if err != nil {
		s.logger.Error("list gradi failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list gradi: %w", err)
	}
	return list, nil
}

func (s *anagraficaService) GetGrado(ctx context.Context, id int) (*domain.Grado, error) {
	return s.gradiRepo.GetGrado(ctx, id)
}

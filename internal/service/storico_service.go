package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"

	"go.uber.org/zap"
)

// StoricoService read side of the assignment history. Records enter the
// archive only through AllocatorService.Close; here they are queried,
// aggregated and, for admins, purged.
type StoricoService interface {
	ListStorico(ctx context.Context, req ListStoricoRequest) (*ListStoricoResponse, error)
	GetStorico(ctx context.Context, id int) (*domain.StoricoAssegnazione, error)
	GetStats(ctx context.Context, req StoricoStatsRequest) (*StoricoStats, error)
	DeleteStorico(ctx context.Context, id int, operatore string) error
}

type storicoService struct {
	storicoRepo repository.StoricoRepository
	logger      *zap.Logger
}

func NewStoricoService(storicoRepo repository.StoricoRepository, logger *zap.Logger) StoricoService {
	return &storicoService{
		storicoRepo: storicoRepo,
		logger:      logger,
	}
}

type ListStoricoRequest struct {
	Matricola     string
	IDCamera      *int
	NumeroCamera  string
	Grado         string
	Edificio      string
	DataEntrataDa *time.Time
	DataEntrataA  *time.Time
	DataUscitaDa  *time.Time
	DataUscitaA   *time.Time
}

type ListStoricoResponse struct {
	Storico []*domain.StoricoAssegnazione
	Count   int
}

// StoricoStatsRequest Anno/Mese restrict the aggregation to records
// whose data_uscita falls in that year or month. Zero means no limit.
type StoricoStatsRequest struct {
	Anno int
	Mese int
}

// StoricoStats movement aggregates. DurataMedia is the average
// assignment length in whole days over the selected records.
type StoricoStats struct {
	TotaleMovimenti int            `json:"totale_movimenti"`
	PerCamera       map[string]int `json:"per_camera"`
	PerGrado        map[string]int `json:"per_grado"`
	PerEdificio     map[string]int `json:"per_edificio"`
	DurataMedia     int            `json:"durata_media"`
}

func (s *storicoService) ListStorico(ctx context.Context, req ListStoricoRequest) (*ListStoricoResponse, error) {
	list, err := s.storicoRepo.ListStorico(ctx, repository.StoricoFilter{
		Matricola:     req.Matricola,
		IDCamera:      req.IDCamera,
		NumeroCamera:  req.NumeroCamera,
		Grado:         req.Grado,
		Edificio:      req.Edificio,
		DataEntrataDa: req.DataEntrataDa,
		DataEntrataA:  req.DataEntrataA,
		DataUscitaDa:  req.DataUscitaDa,
		DataUscitaA:   req.DataUscitaA,
	})
	if err != nil {
		s.logger.Error("list storico failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list storico: %w", err)
	}
	return &ListStoricoResponse{Storico: list, Count: len(list)}, nil
}

func (s *storicoService) GetStorico(ctx context.Context, id int) (*domain.StoricoAssegnazione, error) {
	return s.storicoRepo.GetStorico(ctx, id)
}

func (s *storicoService) GetStats(ctx context.Context, req StoricoStatsRequest) (*StoricoStats, error) {
	filter := repository.StoricoFilter{}
	if req.Anno > 0 {
		da := time.Date(req.Anno, time.January, 1, 0, 0, 0, 0, time.UTC)
		a := da.AddDate(1, 0, 0).Add(-time.Nanosecond)
		if req.Mese >= 1 && req.Mese <= 12 {
			da = time.Date(req.Anno, time.Month(req.Mese), 1, 0, 0, 0, 0, time.UTC)
			a = da.AddDate(0, 1, 0).Add(-time.Nanosecond)
		}
		filter.DataUscitaDa = &da
		filter.DataUscitaA = &a
	}

	list, err := s.storicoRepo.ListStorico(ctx, filter)
	if err != nil {
		s.logger.Error("storico stats failed", zap.Error(err))
		return nil, fmt.Errorf("failed to compute storico stats: %w", err)
	}

	stats := &StoricoStats{
		PerCamera:   map[string]int{},
		PerGrado:    map[string]int{},
		PerEdificio: map[string]int{},
	}
	giorniTotali := 0
	for _, rec := range list {
		stats.TotaleMovimenti++
		stats.PerCamera[rec.NumeroCamera]++
		stats.PerGrado[rec.Grado]++
		if rec.Edificio != "" {
			stats.PerEdificio[rec.Edificio]++
		}
		giorniTotali += int(rec.DataUscita.Sub(rec.DataEntrata).Hours() / 24)
	}
	if stats.TotaleMovimenti > 0 {
		stats.DurataMedia = int(math.Round(float64(giorniTotali) / float64(stats.TotaleMovimenti)))
	}
	return stats, nil
}

func (s *storicoService) DeleteStorico(ctx context.Context, id int, operatore string) error {
	if err := s.storicoRepo.DeleteStorico(ctx, id); err != nil {
		s.logger.Warn("delete storico failed", zap.Int("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("record storico eliminato",
		zap.Int("id", id),
		zap.String("operatore", operatore))
	return nil
}

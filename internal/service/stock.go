package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// StockService реализует обращения к эндпоинтам /stock
type StockService struct {
	backend domain.BackendClient
	logger  *zap.Logger
}

// NewStockService создаёт новый экземпляр StockService
func NewStockService(backend domain.BackendClient, logger *zap.Logger) *StockService {
	return &StockService{
		backend: backend,
		logger:  logger,
	}
}

// List возвращает складские позиции, при необходимости по категории
func (s *StockService) List(ctx context.Context, categorie string) ([]domain.StockItem, error) {
	params := apiclient.NewParams().Set("categorie", categorie)

	var out []domain.StockItem
	if err := s.backend.Get(ctx, "/stock", params.Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return out, nil
}

// Alerts возвращает позиции ниже порога
func (s *StockService) Alerts(ctx context.Context) ([]domain.StockAlert, error) {
	var out []domain.StockAlert
	if err := s.backend.Get(ctx, "/stock/alerts", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get stock alerts: %w", err)
	}

	if len(out) > 0 {
		s.logger.Info("stock alerts", zap.Int("count", len(out)))
	}
	return out, nil
}

// Movements возвращает движения по складу
func (s *StockService) Movements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	params := apiclient.NewParams().
		Set("article", filter.ArticleID).
		Set("type", filter.Type).
		Set("dateDebut", filter.DateDebut).
		Set("dateFin", filter.DateFin).
		SetInt("limit", filter.Limit)

	var out []domain.StockMovement
	if err := s.backend.Get(ctx, "/stock/movements", params.Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get stock movements: %w", err)
	}
	return out, nil
}

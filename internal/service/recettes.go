package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// RecettesQuery - параметры запроса выручки. Значение сравнимо через ==.
type RecettesQuery struct {
	Period  domain.PeriodSelection `json:"period"`
	GroupBy string                 `json:"groupBy"`
}

// Key возвращает часть ключа кэша
func (q RecettesQuery) Key() string {
	return q.Period.Key() + "|groupBy=" + q.GroupBy
}

// RecettesService реализует обращения к /recettes
type RecettesService struct {
	backend domain.BackendClient
	logger  *zap.Logger
}

// NewRecettesService создаёт новый экземпляр RecettesService
func NewRecettesService(backend domain.BackendClient, logger *zap.Logger) *RecettesService {
	return &RecettesService{
		backend: backend,
		logger:  logger,
	}
}

// Recettes возвращает выручку, сгруппированную бэкендом по дню, неделе или месяцу
func (s *RecettesService) Recettes(ctx context.Context, q RecettesQuery) ([]domain.DateGroupRecord, error) {
	params := apiclient.NewParams().Set("groupBy", q.GroupBy)
	switch q.Period.Mode {
	case domain.PeriodQuick:
		params.Set("periode", q.Period.Value)
	case domain.PeriodDate:
		params.Set("date", q.Period.Value)
	case domain.PeriodRange:
		params.Set("startDate", q.Period.Range.StartDate).Set("endDate", q.Period.Range.EndDate)
	}

	var out []domain.DateGroupRecord
	if err := s.backend.Get(ctx, "/recettes", params.Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to get recettes: %w", err)
	}

	s.logger.Debug("recettes loaded",
		zap.String("period", q.Period.Key()),
		zap.String("group_by", q.GroupBy),
		zap.Int("records", len(out)))

	return out, nil
}

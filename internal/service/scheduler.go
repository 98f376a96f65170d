package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// SchedulerService управляет планировщиком задач бэкенда
type SchedulerService struct {
	backend domain.BackendClient
	logger  *zap.Logger
}

// NewSchedulerService создаёт новый экземпляр SchedulerService
func NewSchedulerService(backend domain.BackendClient, logger *zap.Logger) *SchedulerService {
	return &SchedulerService{
		backend: backend,
		logger:  logger,
	}
}

// Status возвращает состояние планировщика
func (s *SchedulerService) Status(ctx context.Context) (*domain.SchedulerStatus, error) {
	var out domain.SchedulerStatus
	if err := s.backend.Get(ctx, "/scheduler/status", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get scheduler status: %w", err)
	}
	return &out, nil
}

// Start запускает планировщик
func (s *SchedulerService) Start(ctx context.Context) error {
	if err := s.backend.Send(ctx, http.MethodPost, "/scheduler/start", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	s.logger.Info("scheduler started")
	return nil
}

// Stop останавливает планировщик
func (s *SchedulerService) Stop(ctx context.Context) error {
	if err := s.backend.Send(ctx, http.MethodPost, "/scheduler/stop", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// RunTask немедленно выполняет задачу планировщика
func (s *SchedulerService) RunTask(ctx context.Context, task string) error {
	if task == "" {
		return domain.ErrInvalidInput
	}
	if err := s.backend.Send(ctx, http.MethodPost, "/scheduler/run/"+url.PathEscape(task), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to run scheduler task %s: %w", task, err)
	}
	s.logger.Info("scheduler task triggered", zap.String("task", task))
	return nil
}

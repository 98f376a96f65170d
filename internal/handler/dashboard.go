package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/dashboard"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
)

// DashboardHandler отдаёт состояние наблюдателей дашборда
type DashboardHandler struct {
	dash        *dashboard.Dashboard
	waitTimeout time.Duration
	logger      *zap.Logger
}

// NewDashboardHandler создаёт новый экземпляр DashboardHandler.
// waitTimeout ограничивает ожидание загрузки после смены параметров.
func NewDashboardHandler(dash *dashboard.Dashboard, waitTimeout time.Duration, logger *zap.Logger) *DashboardHandler {
	if waitTimeout <= 0 {
		waitTimeout = 15 * time.Second
	}
	return &DashboardHandler{
		dash:        dash,
		waitTimeout: waitTimeout,
		logger:      logger,
	}
}

// GetAdvanced обрабатывает GET /dashboard/advanced
func (h *DashboardHandler) GetAdvanced(w http.ResponseWriter, r *http.Request) {
	period, ok, err := parsePeriod(r)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	var state domain.StatResult[dashboard.AdvancedData]
	if ok {
		state, err = h.dash.Advanced.SetParams(ctx, period)
	} else {
		state, err = h.dash.Advanced.WaitLoaded(ctx)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		handleDomainError(w, h.logger, err)
		return
	}

	// сводка обязательна: без данных экран показывает ошибку вместо пустых карточек
	if state.Data == nil && state.Error != "" {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: ErrorDetail{Code: domain.CodeBackendError, Message: state.Error},
		})
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetCaisse обрабатывает GET /dashboard/caisse?date=
func (h *DashboardHandler) GetCaisse(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	var (
		state domain.StatResult[dashboard.CaisseData]
		err   error
	)
	if date != "" {
		if err := domain.SingleDate(date).Validate(); err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
		state, err = h.dash.Caisse.SetParams(ctx, date)
	} else {
		state, err = h.dash.Caisse.WaitLoaded(ctx)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		handleDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetRecettes обрабатывает GET /dashboard/recettes
func (h *DashboardHandler) GetRecettes(w http.ResponseWriter, r *http.Request) {
	current := h.dash.Recettes.Params()

	period, ok, err := parsePeriod(r)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	if !ok {
		period = current.Period
	}
	groupBy, err := parseGroupBy(r, current.GroupBy)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	query := service.RecettesQuery{Period: period, GroupBy: groupBy}
	state, err := h.dash.Recettes.SetParams(ctx, query)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		handleDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard.BuildRecettesView(state, h.dash.Recettes.DataParams()))
}

// GetSynchronized обрабатывает GET /dashboard/synchronized.
// С параметром wait=true ответ ждёт загрузки всех блоков.
func (h *DashboardHandler) GetSynchronized(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusOK, h.dash.Synchronized.State())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	state, err := h.dash.Synchronized.WaitAllLoaded(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		handleDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Refetch обрабатывает POST /dashboard/{name}/refetch
func (h *DashboardHandler) Refetch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	state, err := h.dash.Refetch(ctx, name)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		handleDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("dashboard refetched", zap.String("view", name))
	writeJSON(w, http.StatusOK, state)
}

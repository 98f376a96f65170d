package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/aggregation"
	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// StatsActions - действия со статистикой на стороне бэкенда
type StatsActions interface {
	ClearCache(ctx context.Context) error
	Export(ctx context.Context, period domain.PeriodSelection, format string) (*domain.ExportFile, error)
}

// StatsReports - отчёты /stats/* через локальный кэш
type StatsReports interface {
	CacheClearer
	PreparationTime(ctx context.Context, period domain.PeriodSelection) (*domain.PreparationTimeStats, error)
	Comparison(ctx context.Context, period domain.PeriodSelection) (*domain.ComparisonStats, error)
	StockStats(ctx context.Context) (*domain.StockStats, error)
}

// StatsHandler обрабатывает HTTP запросы для статистики
type StatsHandler struct {
	stats   StatsActions
	reports StatsReports
	logger  *zap.Logger
}

// NewStatsHandler создаёт новый экземпляр StatsHandler
func NewStatsHandler(stats StatsActions, reports StatsReports, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:   stats,
		reports: reports,
		logger:  logger,
	}
}

// GetPreparationTime обрабатывает GET /stats/preparation-time
func (h *StatsHandler) GetPreparationTime(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodOrToday(w, r)
	if !ok {
		return
	}

	stats, err := h.reports.PreparationTime(r.Context(), period)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetComparison обрабатывает GET /stats/comparison. Кроме ответа бэкенда
// отдаёт изменения в процентах.
func (h *StatsHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodOrToday(w, r)
	if !ok {
		return
	}

	stats, err := h.reports.Comparison(r.Context(), period)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actuelle":   stats.Actuelle,
		"precedente": stats.Precedente,
		"deltas":     aggregation.CompareTotals(stats.Actuelle, stats.Precedente),
	})
}

// GetStock обрабатывает GET /stats/stock
func (h *StatsHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.StockStats(r.Context())
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// periodOrToday разбирает период запроса; без параметров - сегодня
func (h *StatsHandler) periodOrToday(w http.ResponseWriter, r *http.Request) (domain.PeriodSelection, bool) {
	period, ok, err := parsePeriod(r)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return domain.PeriodSelection{}, false
	}
	if !ok {
		period = domain.QuickPeriod(domain.QuickToday)
	}
	return period, true
}

// ClearCache обрабатывает POST /stats/clear-cache
func (h *StatsHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	removed := h.reports.ClearCache()

	if err := h.stats.ClearCache(r.Context()); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cleared": removed,
	})
}

// Export обрабатывает GET /stats/export?format=csv|xlsx|pdf
func (h *StatsHandler) Export(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodOrToday(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv", "xlsx", "pdf":
	default:
		handleDomainError(w, h.logger, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, format))
		return
	}

	file, err := h.stats.Export(r.Context(), period, format)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to write export body", zap.Error(err))
	}
}

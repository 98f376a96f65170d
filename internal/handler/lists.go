package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// ListsSource - кэшированные списки бэк-офиса
type ListsSource interface {
	Stock(ctx context.Context, categorie string) ([]domain.StockItem, error)
	StockAlerts(ctx context.Context) ([]domain.StockAlert, error)
	Notifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error)
	InvalidateNotifications() int
}

// NotificationActions - изменения уведомлений
type NotificationActions interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// ListsHandler отдаёт складские алерты и уведомления
type ListsHandler struct {
	lists         ListsSource
	notifications NotificationActions
	logger        *zap.Logger
}

// NewListsHandler создаёт новый экземпляр ListsHandler
func NewListsHandler(lists ListsSource, notifications NotificationActions, logger *zap.Logger) *ListsHandler {
	return &ListsHandler{
		lists:         lists,
		notifications: notifications,
		logger:        logger,
	}
}

// GetStock обрабатывает GET /stock?categorie=
func (h *ListsHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.lists.Stock(r.Context(), r.URL.Query().Get("categorie"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.StockItem{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// GetStockAlerts обрабатывает GET /stock/alerts
func (h *ListsHandler) GetStockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.lists.StockAlerts(r.Context())
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	if alerts == nil {
		alerts = []domain.StockAlert{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
	})
}

// GetNotifications обрабатывает GET /notifications?unread=true
func (h *ListsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"

	items, err := h.lists.Notifications(r.Context(), unread)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": items,
	})
}

// MarkRead обрабатывает PATCH /notifications/{id}/read
func (h *ListsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context) error {
		return h.notifications.MarkRead(ctx, chi.URLParam(r, "id"))
	})
}

// MarkAllRead обрабатывает PATCH /notifications/mark-all-read
func (h *ListsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.notifications.MarkAllRead)
}

// DeleteNotification обрабатывает DELETE /notifications/{id}
func (h *ListsHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context) error {
		return h.notifications.Delete(ctx, chi.URLParam(r, "id"))
	})
}

func (h *ListsHandler) mutate(w http.ResponseWriter, r *http.Request, action func(ctx context.Context) error) {
	if err := action(r.Context()); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	h.lists.InvalidateNotifications()
	w.WriteHeader(http.StatusNoContent)
}

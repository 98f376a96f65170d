package handler

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// CacheClearer сбрасывает локальный кэш ответов
type CacheClearer interface {
	ClearCache() int
}

// AuthHandler управляет токеном доступа к бэкенду кассы
type AuthHandler struct {
	tokens domain.TokenStore
	cache  CacheClearer
	logger *zap.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler
func NewAuthHandler(tokens domain.TokenStore, cache CacheClearer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}
}

// PutToken обрабатывает PUT /auth/token
func (h *AuthHandler) PutToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}

	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err), domain.CodeInvalidInput)
		return
	}

	token := strings.TrimSpace(strings.TrimPrefix(req.Token, "Bearer "))
	if token == "" {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: token is required", domain.ErrInvalidInput), domain.CodeInvalidInput)
		return
	}

	if err := h.tokens.Save(r.Context(), token); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	// данные прежнего пользователя не должны попасть в ответы новому
	removed := h.cache.ClearCache()
	h.logger.Info("backend token updated", zap.Int("cache_entries_removed", removed))

	w.WriteHeader(http.StatusNoContent)
}

// DeleteToken обрабатывает DELETE /auth/token
func (h *AuthHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Clear(r.Context()); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	h.cache.ClearCache()
	h.logger.Info("backend token cleared")

	w.WriteHeader(http.StatusNoContent)
}

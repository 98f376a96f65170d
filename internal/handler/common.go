package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// ErrorResponse представляет структуру ошибки API
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит детали ошибки
type ErrorDetail struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// writeJSON записывает JSON ответ
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		// заголовки уже отправлены, сообщить клиенту об ошибке кодирования нельзя
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError записывает ошибку в формате API
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, err error, code domain.ErrorCode) {
	logger.Error("request error",
		zap.Error(err),
		zap.Int("status_code", statusCode),
		zap.String("error_code", string(code)))

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	}

	writeJSON(w, statusCode, response)
}

// handleDomainError обрабатывает доменные ошибки и возвращает соответствующий HTTP статус
func handleDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := domain.MapErrorToCode(err)
	writeError(w, logger, statusForCode(code), err, code)
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeRateLimited, domain.CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		// бэкенд кассы недоступен или ответил ошибкой
		return http.StatusBadGateway
	}
}

// decodeJSON декодирует JSON из request body
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

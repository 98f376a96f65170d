package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// APIError - ответ бэкенда со статусом вне диапазона 2xx
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	msg := ""
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		msg = env.Message
		if msg == "" {
			msg = env.Error
		}
	}
	if msg == "" {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
		Message:    msg,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap сопоставляет статус с доменной ошибкой для errors.Is
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrTooManyRequests
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	default:
		return domain.ErrBackend
	}
}

// StatusCode возвращает HTTP-статус из цепочки ошибок или 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

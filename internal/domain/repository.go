package domain

import (
	"context"
	"net/url"
)

// TokenStore определяет интерфейс хранения токена доступа к бэкенду
type TokenStore interface {
	// Get возвращает текущий токен; пустая строка, если токена нет
	Get(ctx context.Context) (string, error)

	// Save заменяет текущий токен
	Save(ctx context.Context, token string) error

	// Clear удаляет токен (например, после ответа 401)
	Clear(ctx context.Context) error
}

// BackendClient определяет интерфейс обращения к REST API бэкенда.
// Ответы разворачиваются из конверта {success, data} перед декодированием в out.
type BackendClient interface {
	// Get выполняет GET и декодирует полезную нагрузку в out
	Get(ctx context.Context, path string, query url.Values, out any) error

	// Send выполняет запрос-действие (POST, PATCH, DELETE)
	Send(ctx context.Context, method, path string, query url.Values, body, out any) error

	// Download выполняет GET и возвращает бинарное тело ответа
	Download(ctx context.Context, path string, query url.Values) (*ExportFile, error)
}

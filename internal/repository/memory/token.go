// Package memory содержит хранилища в памяти процесса
package memory

import (
	"context"
	"sync"
)

// TokenStore хранит токен в памяти; используется CLI и тестами
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewTokenStore создаёт хранилище с начальным токеном
func NewTokenStore(token string) *TokenStore {
	return &TokenStore{token: token}
}

// Get возвращает текущий токен
func (s *TokenStore) Get(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Save заменяет токен
func (s *TokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear удаляет токен
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TokenRepository реализует domain.TokenStore для PostgreSQL.
// В таблице auth_tokens хранится не больше одной строки.
type TokenRepository struct {
	db        *sql.DB
	txManager *TxManager
}

// NewTokenRepository создаёт новый экземпляр TokenRepository
func NewTokenRepository(db *sql.DB, txManager *TxManager) *TokenRepository {
	return &TokenRepository{db: db, txManager: txManager}
}

// Get возвращает текущий токен или пустую строку
func (r *TokenRepository) Get(ctx context.Context) (string, error) {
	query := `
		SELECT token
		FROM auth_tokens
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var token string
	err := r.db.QueryRowContext(ctx, query).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// Save заменяет токен одной транзакцией
func (r *TokenRepository) Save(ctx context.Context, token string) error {
	return r.txManager.WithinTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens`); err != nil {
			return fmt.Errorf("failed to delete previous token: %w", err)
		}

		query := `
			INSERT INTO auth_tokens (token, updated_at)
			VALUES ($1, NOW())
		`
		if _, err := tx.ExecContext(ctx, query, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		return nil
	})
}

// Clear удаляет токен
func (r *TokenRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens`); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/tradingdiary/backend/internal/apperrors"
)

// SettingsRepository stores quote-provider settings. The provider API token
// is fernet-encrypted at rest; the key comes from configuration.
type SettingsRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsRepository creates a SettingsRepository. encryptionKey must be a
// base64 fernet key; an empty key disables token storage.
func NewSettingsRepository(db *sql.DB, encryptionKey string) (*SettingsRepository, error) {
	repo := &SettingsRepository{db: db}
	if encryptionKey != "" {
		key, err := fernet.DecodeKey(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid quotes encryption key: %w", err)
		}
		repo.key = key
	}
	return repo, nil
}

// SetAPIToken encrypts and stores the provider API token.
func (r *SettingsRepository) SetAPIToken(ctx context.Context, token string) error {
	if r.key == nil {
		return apperrors.ErrTokenStorageDisabled
	}

	encrypted, err := fernet.EncryptAndSign([]byte(token), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt api token: %w", err)
	}

	query := `
		INSERT INTO provider_settings (id, api_token_encrypted, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			api_token_encrypted = excluded.api_token_encrypted,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, string(encrypted), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store api token: %w", err)
	}
	return nil
}

// GetAPIToken decrypts and returns the stored provider API token. Returns an
// empty string when no token is stored.
func (r *SettingsRepository) GetAPIToken(ctx context.Context) (string, error) {
	if r.key == nil {
		return "", nil
	}

	var encrypted sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT api_token_encrypted FROM provider_settings WHERE id = 1`).Scan(&encrypted)
	if err == sql.ErrNoRows || !encrypted.Valid {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read api token: %w", err)
	}

	token := fernet.VerifyAndDecrypt([]byte(encrypted.String), 0, []*fernet.Key{r.key})
	if token == nil {
		return "", fmt.Errorf("failed to decrypt api token")
	}
	return string(token), nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"remindbot/internal/database"
	"remindbot/internal/models"
)

type CredentialsRepository struct {
	db *database.DB
}

func NewCredentialsRepository(db *database.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

func (r *CredentialsRepository) Upsert(ctx context.Context, creds *models.GoogleCredentials) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO google_credentials (chat_id, access_token, refresh_token, expires_at, calendar_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chat_id) DO UPDATE SET
		   access_token = EXCLUDED.access_token,
		   refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), google_credentials.refresh_token),
		   expires_at = EXCLUDED.expires_at,
		   calendar_id = EXCLUDED.calendar_id`,
		creds.ChatID, creds.AccessToken, creds.RefreshToken, creds.ExpiresAt, creds.CalendarID,
	)
	return err
}

func (r *CredentialsRepository) GetByChatID(ctx context.Context, chatID int64) (*models.GoogleCredentials, error) {
	creds := &models.GoogleCredentials{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT chat_id, access_token, COALESCE(refresh_token, ''), expires_at, calendar_id, created_at
		 FROM google_credentials WHERE chat_id = $1`,
		chatID,
	).Scan(&creds.ChatID, &creds.AccessToken, &creds.RefreshToken, &creds.ExpiresAt, &creds.CalendarID, &creds.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (r *CredentialsRepository) UpdateAccessToken(ctx context.Context, chatID int64, accessToken string, expiresAt *time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE google_credentials SET access_token = $1, expires_at = $2 WHERE chat_id = $3`,
		accessToken, expiresAt, chatID,
	)
	return err
}

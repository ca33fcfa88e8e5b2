package repository

import (
	"context"

	"github.com/google/uuid"

	"remindbot/internal/database"
	"remindbot/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate upserts by chat id; a fresh row starts with timezone UTC
// and language en until the user picks otherwise.
func (r *UserRepository) GetOrCreate(ctx context.Context, chatID int64, userName string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (chat_id, user_name) VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO UPDATE SET user_name = EXCLUDED.user_name
		 RETURNING id, chat_id, user_name, timezone, language, COALESCE(phone_number, ''), created_at`,
		chatID, userName,
	).Scan(&user.ID, &user.ChatID, &user.UserName, &user.Timezone, &user.Language, &user.PhoneNumber, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, chat_id, user_name, timezone, language, COALESCE(phone_number, ''), created_at
		 FROM users WHERE chat_id = $1`,
		chatID,
	).Scan(&user.ID, &user.ChatID, &user.UserName, &user.Timezone, &user.Language, &user.PhoneNumber, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, chat_id, user_name, timezone, language, COALESCE(phone_number, ''), created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.ChatID, &user.UserName, &user.Timezone, &user.Language, &user.PhoneNumber, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) SetTimezone(ctx context.Context, chatID int64, timezone string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET timezone = $1 WHERE chat_id = $2`,
		timezone, chatID,
	)
	return err
}

func (r *UserRepository) SetLanguage(ctx context.Context, chatID int64, language string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET language = $1 WHERE chat_id = $2`,
		language, chatID,
	)
	return err
}

func (r *UserRepository) SetPhoneNumber(ctx context.Context, chatID int64, phone string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET phone_number = $1 WHERE chat_id = $2`,
		phone, chatID,
	)
	return err
}

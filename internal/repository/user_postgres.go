package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jaekwang-park/task-api/internal/model"
)

const userColumns = `id, cognito_sub, email, nickname, profile_image_url, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUser(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error) {
	query := `
		INSERT INTO users (cognito_sub, email)
		VALUES ($1, $2)
		ON CONFLICT (cognito_sub) DO UPDATE SET email = EXCLUDED.email, updated_at = now()
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, cognitoSub, email)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE cognito_sub = $1`

	row := r.db.QueryRowContext(ctx, query, cognitoSub)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, userID string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, userID)
	return scanUser(row)
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	query := `
		UPDATE users
		SET nickname = $1, profile_image_url = $2, updated_at = now()
		WHERE id = $3
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, user.Nickname, user.ProfileImageURL, user.ID)
	return scanUser(row)
}

func scanUser(row scannable) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.CognitoSub, &u.Email, &u.Nickname,
		&u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", classify(err))
	}
	return u, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)

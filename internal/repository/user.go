package repository

import (
	"context"

	"github.com/jaekwang-park/task-api/internal/model"
)

// UserRepository maps Cognito identities to local users and stores their
// profile. Missing users are reported as sql.ErrNoRows.
type UserRepository interface {
	GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error)
	GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error)
	GetByID(ctx context.Context, userID string) (model.User, error)
	UpdateProfile(ctx context.Context, user model.User) (model.User, error)
}

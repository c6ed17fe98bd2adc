package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

const (
	maxNicknameRunes = 50
	maxImageURLRunes = 2048
)

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

type UpdateProfileInput struct {
	Nickname        *string
	ProfileImageURL *string
}

func (s *UserService) Me(ctx context.Context, userID string) (model.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.UserProfile{}, storeErr("failed to get user", err)
	}
	return user.Profile(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (model.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.UserProfile{}, storeErr("failed to get user for update", err)
	}

	var fe fieldErrors
	if input.Nickname != nil {
		user.Nickname = strings.TrimSpace(*input.Nickname)
		checkMax(&fe, "nickname", user.Nickname, maxNicknameRunes)
	}
	if input.ProfileImageURL != nil {
		user.ProfileImageURL = strings.TrimSpace(*input.ProfileImageURL)
		if utf8.RuneCountInString(user.ProfileImageURL) > maxImageURLRunes {
			fe.add("profile_image_url", "profile image URL is too long")
		} else if u := user.ProfileImageURL; u != "" && !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			fe.add("profile_image_url", "profile image URL must be an http(s) URL")
		}
	}
	if err := fe.err(); err != nil {
		return model.UserProfile{}, err
	}

	updated, err := s.repo.UpdateProfile(ctx, user)
	if err != nil {
		return model.UserProfile{}, storeErr("failed to update user", err)
	}
	return updated.Profile(), nil
}

// ResolveUserID maps a Cognito subject to the local user id. It is used by
// the auth middleware; a missing user yields ErrNotFound.
func (s *UserService) ResolveUserID(ctx context.Context, cognitoSub string) (string, error) {
	user, err := s.repo.GetByCognitoSub(ctx, cognitoSub)
	if err != nil {
		return "", storeErr("failed to resolve user", err)
	}
	return user.ID, nil
}

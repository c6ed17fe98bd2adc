package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jaekwang-park/task-api/internal/cognito"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

const minPasswordRunes = 8

// AuthService fronts the Cognito user pool and keeps the local user table in
// sync on login.
type AuthService struct {
	cognitoClient cognito.Client
	userRepo      repository.UserRepository
}

func NewAuthService(cognitoClient cognito.Client, userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		cognitoClient: cognitoClient,
		userRepo:      userRepo,
	}
}

type SignUpInput struct {
	Email    string
	Password string
}

type SignUpOutput struct {
	UserSub      string `json:"user_sub"`
	Confirmed    bool   `json:"confirmed"`
	CodeDelivery string `json:"code_delivery"`
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	IDToken      string            `json:"id_token"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresIn    int32             `json:"expires_in"`
	TokenType    string            `json:"token_type"`
	User         model.UserProfile `json:"user"`
}

type RefreshOutput struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int32  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error) {
	var fe fieldErrors
	email := checkEmail(&fe, input.Email)
	if utf8.RuneCountInString(input.Password) < minPasswordRunes {
		fe.add("password", "password must be at least %d characters long", minPasswordRunes)
	}
	if err := fe.err(); err != nil {
		return SignUpOutput{}, err
	}

	reg, err := s.cognitoClient.SignUp(ctx, cognito.Credentials{Email: email, Password: input.Password})
	if err != nil {
		return SignUpOutput{}, err
	}

	return SignUpOutput{
		UserSub:      reg.UserSub,
		Confirmed:    reg.Confirmed,
		CodeDelivery: reg.CodeDelivery,
	}, nil
}

func (s *AuthService) ConfirmSignUp(ctx context.Context, email, code string) error {
	var fe fieldErrors
	email = checkEmail(&fe, email)
	if strings.TrimSpace(code) == "" {
		fe.add("code", "code is required")
	}
	if err := fe.err(); err != nil {
		return err
	}

	return s.cognitoClient.ConfirmSignUp(ctx, email, strings.TrimSpace(code))
}

func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	var fe fieldErrors
	email = checkEmail(&fe, email)
	if err := fe.err(); err != nil {
		return err
	}

	return s.cognitoClient.ResendCode(ctx, email)
}

// Login authenticates against Cognito and upserts the local user record for
// the token's subject.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginOutput, error) {
	var fe fieldErrors
	email := checkEmail(&fe, input.Email)
	if input.Password == "" {
		fe.add("password", "password is required")
	}
	if err := fe.err(); err != nil {
		return LoginOutput{}, err
	}

	tokens, err := s.cognitoClient.Login(ctx, cognito.Credentials{Email: email, Password: input.Password})
	if err != nil {
		return LoginOutput{}, err
	}

	// The ID token was just issued by Cognito over TLS; its signature is
	// checked by the auth middleware on every later request.
	sub, err := extractSub(tokens.IDToken)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("failed to extract sub from id token: %w", err)
	}

	user, err := s.userRepo.GetOrCreate(ctx, sub, email)
	if err != nil {
		return LoginOutput{}, storeErr("failed to get or create user", err)
	}

	return LoginOutput{
		IDToken:      tokens.IDToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
		User:         user.Profile(),
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, email, refreshToken string) (RefreshOutput, error) {
	var fe fieldErrors
	email = checkEmail(&fe, email)
	if refreshToken == "" {
		fe.add("refresh_token", "refresh_token is required")
	}
	if err := fe.err(); err != nil {
		return RefreshOutput{}, err
	}

	tokens, err := s.cognitoClient.Refresh(ctx, email, refreshToken)
	if err != nil {
		return RefreshOutput{}, err
	}

	return RefreshOutput{
		IDToken:     tokens.IDToken,
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
		TokenType:   tokens.TokenType,
	}, nil
}

// Logout revokes the user's tokens. Without an access token there is nothing
// to revoke and the call succeeds, so clients can always clear their session.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return s.cognitoClient.SignOut(ctx, accessToken)
}

func checkEmail(fe *fieldErrors, raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		fe.add("email", "email is required")
		return ""
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fe.add("email", "please enter a valid email")
	}
	return email
}

// extractSub reads the sub claim without verifying the signature.
func extractSub(idToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("failed to parse ID token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("sub claim not found in ID token")
	}
	return sub, nil
}

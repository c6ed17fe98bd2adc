package cognito

import "context"

// Client is the subset of the Cognito user-pool API the task service uses.
type Client interface {
	SignUp(ctx context.Context, creds Credentials) (Registration, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, creds Credentials) (Tokens, error)
	Refresh(ctx context.Context, email, refreshToken string) (Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
}

type Credentials struct {
	Email    string
	Password string
}

// Registration is the outcome of a sign-up. CodeDelivery names the medium
// the confirmation code was sent through, e.g. "EMAIL".
type Registration struct {
	UserSub      string
	Confirmed    bool
	CodeDelivery string
}

// Tokens are issued on login and refresh. A refresh does not rotate the
// refresh token, so RefreshToken is empty in that case.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}

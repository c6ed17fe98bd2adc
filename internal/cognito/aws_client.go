package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// userPoolAPI is the part of the SDK client AWSClient calls.
type userPoolAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

type AWSClient struct {
	api          userPoolAPI
	clientID     string
	clientSecret string
}

func NewAWSClient(ctx context.Context, region, clientID, clientSecret string) (*AWSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newAWSClient(cip.NewFromConfig(cfg), clientID, clientSecret), nil
}

func newAWSClient(api userPoolAPI, clientID, clientSecret string) *AWSClient {
	return &AWSClient{api: api, clientID: clientID, clientSecret: clientSecret}
}

func (c *AWSClient) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	return aws.String(SecretHash(username, c.clientID, c.clientSecret))
}

func (c *AWSClient) SignUp(ctx context.Context, creds Credentials) (Registration, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: c.secretHash(creds.Email),
		Username:   aws.String(creds.Email),
		Password:   aws.String(creds.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(creds.Email)},
		},
	})
	if err != nil {
		return Registration{}, mapAPIError(err)
	}

	reg := Registration{
		UserSub:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}
	if out.CodeDeliveryDetails != nil {
		reg.CodeDelivery = string(out.CodeDeliveryDetails.DeliveryMedium)
	}
	return reg, nil
}

func (c *AWSClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		SecretHash:       c.secretHash(email),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return mapAPIError(err)
	}
	return nil
}

func (c *AWSClient) ResendCode(ctx context.Context, email string) error {
	_, err := c.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: c.secretHash(email),
		Username:   aws.String(email),
	})
	if err != nil {
		return mapAPIError(err)
	}
	return nil
}

func (c *AWSClient) Login(ctx context.Context, creds Credentials) (Tokens, error) {
	return c.initiateAuth(ctx, types.AuthFlowTypeUserPasswordAuth, creds.Email, map[string]string{
		"USERNAME": creds.Email,
		"PASSWORD": creds.Password,
	})
}

func (c *AWSClient) Refresh(ctx context.Context, email, refreshToken string) (Tokens, error) {
	return c.initiateAuth(ctx, types.AuthFlowTypeRefreshTokenAuth, email, map[string]string{
		"REFRESH_TOKEN": refreshToken,
	})
}

func (c *AWSClient) initiateAuth(ctx context.Context, flow types.AuthFlowType, username string, params map[string]string) (Tokens, error) {
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       aws.String(c.clientID),
		AuthFlow:       flow,
		AuthParameters: params,
	})
	if err != nil {
		return Tokens{}, mapAPIError(err)
	}
	// A challenge (MFA, new password) leaves the result empty.
	if out.AuthenticationResult == nil {
		return Tokens{}, fmt.Errorf("cognito: challenge %q not supported: %w", out.ChallengeName, ErrNotAuthorized)
	}

	r := out.AuthenticationResult
	return Tokens{
		IDToken:      aws.ToString(r.IdToken),
		AccessToken:  aws.ToString(r.AccessToken),
		RefreshToken: aws.ToString(r.RefreshToken),
		ExpiresIn:    r.ExpiresIn,
		TokenType:    aws.ToString(r.TokenType),
	}, nil
}

func (c *AWSClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err == nil {
		return nil
	}
	mapped := mapAPIError(err)
	// An already revoked token counts as signed out.
	if errors.Is(mapped, ErrNotAuthorized) {
		return nil
	}
	return mapped
}

var _ Client = (*AWSClient)(nil)

package cognito

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserNotConfirmed  = errors.New("user not confirmed")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidCode       = errors.New("invalid code")
	ErrCodeExpired       = errors.New("code expired")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrThrottled         = errors.New("too many requests")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// ErrorInfo is the HTTP rendering of a Cognito failure.
type ErrorInfo struct {
	Status int
	Code   string
}

var errorInfos = []struct {
	err  error
	info ErrorInfo
}{
	{ErrUserAlreadyExists, ErrorInfo{http.StatusConflict, "USER_ALREADY_EXISTS"}},
	{ErrUserNotFound, ErrorInfo{http.StatusNotFound, "USER_NOT_FOUND"}},
	{ErrUserNotConfirmed, ErrorInfo{http.StatusForbidden, "USER_NOT_CONFIRMED"}},
	{ErrInvalidPassword, ErrorInfo{http.StatusBadRequest, "INVALID_PASSWORD"}},
	{ErrInvalidCode, ErrorInfo{http.StatusBadRequest, "INVALID_CODE"}},
	{ErrCodeExpired, ErrorInfo{http.StatusBadRequest, "CODE_EXPIRED"}},
	{ErrNotAuthorized, ErrorInfo{http.StatusUnauthorized, "NOT_AUTHORIZED"}},
	{ErrThrottled, ErrorInfo{http.StatusTooManyRequests, "TOO_MANY_REQUESTS"}},
	{ErrInvalidParameter, ErrorInfo{http.StatusBadRequest, "INVALID_PARAMETER"}},
}

// LookupError reports the HTTP status and code for a known Cognito error.
func LookupError(err error) (ErrorInfo, bool) {
	for _, e := range errorInfos {
		if errors.Is(err, e.err) {
			return e.info, true
		}
	}
	return ErrorInfo{}, false
}

// apiErrorCodes maps Cognito exception names onto the sentinels above.
var apiErrorCodes = map[string]error{
	"UsernameExistsException":        ErrUserAlreadyExists,
	"AliasExistsException":           ErrUserAlreadyExists,
	"UserNotFoundException":          ErrUserNotFound,
	"UserNotConfirmedException":      ErrUserNotConfirmed,
	"InvalidPasswordException":       ErrInvalidPassword,
	"CodeMismatchException":          ErrInvalidCode,
	"ExpiredCodeException":           ErrCodeExpired,
	"NotAuthorizedException":         ErrNotAuthorized,
	"PasswordResetRequiredException": ErrNotAuthorized,
	"TooManyRequestsException":       ErrThrottled,
	"TooManyFailedAttemptsException": ErrThrottled,
	"LimitExceededException":         ErrThrottled,
	"InvalidParameterException":      ErrInvalidParameter,
}

// mapAPIError converts an SDK error into one of the sentinels, keeping the
// service message for logs.
func mapAPIError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("cognito: %w", err)
	}
	if sentinel, ok := apiErrorCodes[apiErr.ErrorCode()]; ok {
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), sentinel)
	}
	return fmt.Errorf("cognito %s: %w", apiErr.ErrorCode(), err)
}

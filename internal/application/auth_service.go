package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// UserCredentials pairs a user with the stored hash of their API token.
type UserCredentials struct {
	User      User
	TokenHash string
}

// CredentialStore exposes the user credential operations required by the auth service.
type CredentialStore interface {
	GetCredentials(ctx context.Context, userID string) (UserCredentials, error)
	SetTokenHash(ctx context.Context, userID, hash string, at time.Time) error
}

// TokenVerifier compares a stored hash with a candidate secret.
type TokenVerifier func(encoded, secret string) error

// AuthService issues and validates bearer API tokens of the form
// "<user-id>.<secret>". Only the argon2id hash of the secret is stored.
type AuthService struct {
	credentials     CredentialStore
	verifyToken     TokenVerifier
	secretGenerator func() (string, error)
	hashParams      Argon2idParams
	now             func() time.Time
	logger          *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, verify TokenVerifier, secretGenerator func() (string, error), now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, verify, secretGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, verify TokenVerifier, secretGenerator func() (string, error), now func() time.Time, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyTokenHash
	}
	if secretGenerator == nil {
		secretGenerator = NewTokenSecret
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:     credentials,
		verifyToken:     verify,
		secretGenerator: secretGenerator,
		hashParams:      DefaultArgon2idParams,
		now:             now,
		logger:          defaultLogger(logger),
	}
}

// WithHashParams overrides the argon2id cost used for newly issued tokens.
func (s *AuthService) WithHashParams(params Argon2idParams) *AuthService {
	s.hashParams = params
	return s
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	return nil
}

// IssueToken replaces the user's API token and returns the new bearer value.
// Earlier tokens stop validating.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (token string, err error) {
	if err = s.ready(); err != nil {
		return
	}

	userID = strings.TrimSpace(userID)
	logger := s.loggerWith(ctx, "IssueToken", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue token", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "token issued")
	}()

	if userID == "" || strings.Contains(userID, ".") {
		err = newValidationError("user_id", "user_id must be non-empty and contain no dots")
		return
	}

	if _, err = s.credentials.GetCredentials(ctx, userID); err != nil {
		if isNotFound(err) {
			err = ErrNotFound
		}
		return
	}

	var secret, hash string
	if secret, err = s.secretGenerator(); err != nil {
		return
	}
	if hash, err = CreateTokenHash(secret, s.hashParams); err != nil {
		return
	}
	if err = s.credentials.SetTokenHash(ctx, userID, hash, s.now()); err != nil {
		if isNotFound(err) {
			err = ErrNotFound
		}
		return
	}
	token = userID + "." + secret
	return
}

// RevokeToken clears the user's API token.
func (s *AuthService) RevokeToken(ctx context.Context, userID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RevokeToken", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to revoke token", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "token revoked")
	}()

	if err = s.credentials.SetTokenHash(ctx, userID, "", s.now()); err != nil && isNotFound(err) {
		err = ErrNotFound
	}
	return
}

// ValidateSession verifies a bearer token and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	sep := strings.LastIndex(trimmed, ".")
	if sep <= 0 || sep == len(trimmed)-1 {
		err = ErrInvalidCredentials
		return
	}
	userID, secret := trimmed[:sep], trimmed[sep+1:]

	var creds UserCredentials
	if creds, err = s.credentials.GetCredentials(ctx, userID); err != nil {
		if isNotFound(err) {
			err = ErrInvalidCredentials
		}
		return
	}
	if creds.TokenHash == "" {
		err = ErrInvalidCredentials
		return
	}
	if s.verifyToken(creds.TokenHash, secret) != nil {
		err = ErrInvalidCredentials
		return
	}

	principal = Principal{UserID: creds.User.ID, IsAdmin: creds.User.IsAdmin}
	return
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

type credentialsRepository interface {
	FindByLogin(ctx context.Context, login string) (*models.StudentCredentials, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.StudentCredentials, error)
	UpdatePassword(ctx context.Context, studentID, passwordHash string) error
}

type revocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type tokenIssuer interface {
	Issue(identity auth.Identity) (string, *models.JWTClaims, error)
	Parse(token string) (*models.JWTClaims, error)
	Expiration() time.Duration
}

// StaffAccount is the configured teacher or admin login.
type StaffAccount struct {
	Username     string
	PasswordHash string
	Role         models.Role
}

// AuthService provides login, logout and password changes.
type AuthService struct {
	credentials credentialsRepository
	revocations revocationStore
	hasher      auth.PasswordHasher
	tokens      tokenIssuer
	staff       StaffAccount
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(credentials credentialsRepository, revocations revocationStore, hasher auth.PasswordHasher, tokens tokenIssuer, staff StaffAccount, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staff.Role == "" {
		staff.Role = models.RoleAdmin
	}
	return &AuthService{
		credentials: credentials,
		revocations: revocations,
		hasher:      hasher,
		tokens:      tokens,
		staff:       staff,
		validator:   validation.Validator(),
		logger:      logger,
		now:         time.Now,
	}
}

// Login authenticates a student or the staff account and issues a token.
func (s *AuthService) Login(ctx context.Context, req request.Request) (*models.LoginResponse, error) {
	var body models.LoginRequest
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	body.Username = strings.TrimSpace(body.Username)
	if err := s.validator.Struct(body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Describe(err))
	}

	identity, err := s.verify(ctx, body.Username, body.Password)
	if err != nil {
		return nil, err
	}

	token, _, err := s.tokens.Issue(*identity)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	s.logger.Info("login succeeded", zap.String("user_id", identity.UserID), zap.String("role", string(identity.Role)))

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.Expiration().Seconds()),
		User: models.UserInfo{
			ID:   identity.UserID,
			Name: identity.Name,
			Role: identity.Role,
		},
	}, nil
}

func (s *AuthService) verify(ctx context.Context, username, password string) (*auth.Identity, error) {
	if s.staff.Username != "" && s.staff.PasswordHash != "" && strings.EqualFold(username, s.staff.Username) {
		if err := s.hasher.Verify(s.staff.PasswordHash, password); err != nil {
			return nil, s.credentialError(err)
		}
		return &auth.Identity{UserID: s.staff.Username, Name: s.staff.Username, Role: s.staff.Role}, nil
	}

	creds, err := s.credentials.FindByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		s.logger.Error("load credentials failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load credentials")
	}
	if err := s.hasher.Verify(creds.PasswordHash, password); err != nil {
		return nil, s.credentialError(err)
	}
	return &auth.Identity{UserID: creds.StudentID, Name: creds.Name, Role: models.RoleStudent}, nil
}

func (s *AuthService) credentialError(err error) error {
	if errors.Is(err, auth.ErrPasswordMismatch) {
		return appErrors.ErrInvalidCredentials
	}
	s.logger.Warn("password verification failed", zap.Error(err))
	return appErrors.ErrInvalidCredentials
}

// Authenticate validates an access token and rejects logged-out ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("token revocation lookup failed", zap.Error(err))
		} else if revoked {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has been revoked")
		}
	}
	return claims, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if s.revocations == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("revoke token failed", zap.Error(err))
		return appErrors.Internal(err, "failed to revoke token")
	}
	return nil
}

// ChangePassword replaces a student's password after checking the current
// one. Students may only change their own password; staff may change any.
func (s *AuthService) ChangePassword(ctx context.Context, req request.Request, identity *auth.Identity) error {
	if identity == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}

	var body models.ChangePasswordRequest
	if err := req.Decode(&body); err != nil {
		return err
	}
	body.StudentID = strings.TrimSpace(body.StudentID)
	if err := s.validator.Struct(body); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Describe(err))
	}
	if !identity.Elevated() && identity.UserID != body.StudentID {
		return appErrors.Clone(appErrors.ErrForbidden, "students may only change their own password")
	}

	creds, err := s.credentials.FindByStudentID(ctx, body.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Error("load credentials failed", zap.Error(err))
		return appErrors.Internal(err, "failed to load student")
	}
	if err := s.hasher.Verify(creds.PasswordHash, body.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "current password is incorrect")
		}
		return appErrors.Internal(err, "failed to verify password")
	}

	hash, err := s.hasher.Hash(body.NewPassword)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.credentials.UpdatePassword(ctx, body.StudentID, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Error("update password failed", zap.Error(err))
		return appErrors.Internal(err, "failed to update password")
	}
	return nil
}

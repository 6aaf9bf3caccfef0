package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/request"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

type mockCredentialsRepo struct {
	students  map[string]*models.StudentCredentials
	findErr   error
	updateErr error
	updated   map[string]string
}

func (m *mockCredentialsRepo) FindByLogin(_ context.Context, login string) (*models.StudentCredentials, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, creds := range m.students {
		if creds.StudentID == login || creds.Email == login {
			return creds, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCredentialsRepo) FindByStudentID(_ context.Context, studentID string) (*models.StudentCredentials, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	creds, ok := m.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return creds, nil
}

func (m *mockCredentialsRepo) UpdatePassword(_ context.Context, studentID, passwordHash string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.updated == nil {
		m.updated = map[string]string{}
	}
	m.updated[studentID] = passwordHash
	return nil
}

type mockRevocations struct {
	revoked   map[string]time.Duration
	lookupErr error
}

func (m *mockRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = map[string]time.Duration{}
	}
	m.revoked[tokenID] = ttl
	return nil
}

func (m *mockRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func newTestAuthService(t *testing.T) (*AuthService, *mockCredentialsRepo, *mockRevocations) {
	t.Helper()
	creds := &mockCredentialsRepo{students: map[string]*models.StudentCredentials{
		"S-1": {StudentID: "S-1", Name: "Ada", Email: "ada@example.edu", PasswordHash: "hashed:secret123"},
	}}
	revocations := &mockRevocations{}
	tokens := auth.NewTokenIssuer(auth.TokenConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "course-portal"})
	staff := StaffAccount{Username: "teacher", PasswordHash: "hashed:staffpass", Role: models.RoleTeacher}
	return NewAuthService(creds, revocations, fakeHasher{}, tokens, staff, zap.NewNop()), creds, revocations
}

func TestAuthServiceLoginStudent(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), body(map[string]any{"username": " ada@example.edu ", "password": "secret123"}))
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.UserInfo{ID: "S-1", Name: "Ada", Role: models.RoleStudent}, resp.User)

	claims, err := svc.Authenticate(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "S-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginStaffIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), body(map[string]any{"username": "TEACHER", "password": "staffpass"}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)
	assert.Equal(t, "teacher", resp.User.ID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, creds, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), body(map[string]any{"username": "S-1", "password": "wrong"}))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), body(map[string]any{"username": "nobody", "password": "secret123"}))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), body(map[string]any{"username": "S-1"}))
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	creds.findErr = errors.New("connection refused")
	_, err = svc.Login(context.Background(), body(map[string]any{"username": "S-1", "password": "secret123"}))
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	svc, _, revocations := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), body(map[string]any{"username": "S-1", "password": "secret123"}))
	require.NoError(t, err)
	claims, err := svc.Authenticate(context.Background(), resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))
	require.Contains(t, revocations.revoked, claims.ID)
	assert.True(t, revocations.revoked[claims.ID] > 0)

	_, err = svc.Authenticate(context.Background(), resp.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestAuthServiceAuthenticateToleratesRevocationOutage(t *testing.T) {
	svc, _, revocations := newTestAuthService(t)
	resp, err := svc.Login(context.Background(), body(map[string]any{"username": "S-1", "password": "secret123"}))
	require.NoError(t, err)

	revocations.lookupErr = errors.New("redis down")
	_, err = svc.Authenticate(context.Background(), resp.AccessToken)
	assert.NoError(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	payload := func(studentID, current, next string) request.Request {
		return body(map[string]any{"student_id": studentID, "current_password": current, "new_password": next})
	}

	t.Run("requires identity", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		err := svc.ChangePassword(ctx, payload("S-1", "secret123", "newsecret"), nil)
		assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
	})

	t.Run("short new password", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		err := svc.ChangePassword(ctx, payload("S-1", "secret123", "short"), ada)
		assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	})

	t.Run("other student forbidden", func(t *testing.T) {
		svc, creds, _ := newTestAuthService(t)
		err := svc.ChangePassword(ctx, payload("S-1", "secret123", "newsecret"), bob)
		assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
		assert.Empty(t, creds.updated)
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, creds, _ := newTestAuthService(t)
		err := svc.ChangePassword(ctx, payload("S-1", "nope", "newsecret"), ada)
		appErr := appErrors.FromError(err)
		assert.Equal(t, http.StatusUnauthorized, appErr.Status)
		assert.Equal(t, "current password is incorrect", appErr.Message)
		assert.Empty(t, creds.updated)
	})

	t.Run("unknown student", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		err := svc.ChangePassword(ctx, payload("S-9", "secret123", "newsecret"), teacher)
		assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	})

	t.Run("owner succeeds", func(t *testing.T) {
		svc, creds, _ := newTestAuthService(t)
		require.NoError(t, svc.ChangePassword(ctx, payload("S-1", "secret123", "newsecret"), ada))
		assert.Equal(t, "hashed:newsecret", creds.updated["S-1"])
	})
}

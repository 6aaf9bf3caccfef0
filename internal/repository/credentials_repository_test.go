package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsFindByLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCredentialsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, name, email, password_hash FROM students")).
		WithArgs("ada@example.edu", "ada@example.edu").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "name", "email", "password_hash"}).
			AddRow("S-1", "Ada", "ada@example.edu", "$2a$hash"))

	creds, err := repo.FindByLogin(context.Background(), "ada@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "S-1", creds.StudentID)
	assert.Equal(t, "$2a$hash", creds.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialsUpdatePassword(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCredentialsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET password_hash = ? WHERE student_id = ?")).
		WithArgs("new-hash", "S-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), "S-1", "new-hash"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET password_hash = ? WHERE student_id = ?")).
		WithArgs("new-hash", "S-404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "S-404", "new-hash"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationRepositoryDisabled(t *testing.T) {
	repo := NewRevocationRepository(nil)
	assert.False(t, repo.Enabled())
	require.NoError(t, repo.Revoke(context.Background(), "jti", time.Minute))

	revoked, err := repo.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

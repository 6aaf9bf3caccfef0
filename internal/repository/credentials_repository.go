package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-portal-api/internal/models"
)

// CredentialsRepository reads and writes student password hashes. It is the
// only code path that selects the password_hash column.
type CredentialsRepository struct {
	db *sqlx.DB
}

// NewCredentialsRepository constructs a CredentialsRepository.
func NewCredentialsRepository(db *sqlx.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// FindByLogin looks a student up by student id or e-mail.
func (r *CredentialsRepository) FindByLogin(ctx context.Context, login string) (*models.StudentCredentials, error) {
	query := r.db.Rebind(`SELECT student_id, name, email, password_hash FROM students
        WHERE student_id = ? OR LOWER(email) = LOWER(?) LIMIT 1`)
	return r.get(ctx, query, login, login)
}

// FindByStudentID returns the credentials of one student.
func (r *CredentialsRepository) FindByStudentID(ctx context.Context, studentID string) (*models.StudentCredentials, error) {
	query := r.db.Rebind(`SELECT student_id, name, email, password_hash FROM students WHERE student_id = ?`)
	return r.get(ctx, query, studentID)
}

func (r *CredentialsRepository) get(ctx context.Context, query string, args ...interface{}) (*models.StudentCredentials, error) {
	var creds models.StudentCredentials
	if err := r.db.GetContext(ctx, &creds, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find student credentials: %w", err)
	}
	return &creds, nil
}

// UpdatePassword replaces the stored hash.
func (r *CredentialsRepository) UpdatePassword(ctx context.Context, studentID, passwordHash string) error {
	query := r.db.Rebind(`UPDATE students SET password_hash = ? WHERE student_id = ?`)
	res, err := r.db.ExecContext(ctx, query, passwordHash, studentID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

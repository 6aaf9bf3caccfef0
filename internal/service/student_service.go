package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

type studentCreateRequest struct {
	StudentID string `mapstructure:"student_id" validate:"required,max=50"`
	Name      string `mapstructure:"name" validate:"required,max=100"`
	Email     string `mapstructure:"email" validate:"required,email,max=100"`
	Password  string `mapstructure:"password" validate:"required,min=8"`
}

type studentUpdateRequest struct {
	Name  *string `mapstructure:"name"`
	Email *string `mapstructure:"email"`
}

// NewStudentService manages the roster. Passwords are hashed on create and
// never returned.
func NewStudentService(store resourceStore[models.Student], hasher auth.PasswordHasher, logger *zap.Logger) *Resource[models.Student] {
	return NewResource(ResourceConfig[models.Student]{
		Name:     "students",
		Label:    "student",
		Policy:   auth.PolicyAdmin,
		Required: []string{"student_id", "name", "email", "password"},
		Create: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body studentCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.StudentID = validation.SanitizeText(body.StudentID)
				body.Name = validation.SanitizeText(body.Name)
				body.Email = strings.TrimSpace(body.Email)
			}); err != nil {
				return Draft{}, err
			}

			hash, err := hasher.Hash(body.Password)
			if err != nil {
				return Draft{}, appErrors.Internal(err, "failed to hash password")
			}
			return Draft{
				Columns: []repository.Column{
					{Name: "student_id", Value: body.StudentID},
					{Name: "name", Value: body.Name},
					{Name: "email", Value: body.Email},
					{Name: "password_hash", Value: hash},
				},
				Unique: []repository.Column{
					{Name: "student_id", Value: body.StudentID},
					{Name: "email", Value: body.Email},
				},
			}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body studentUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("name", body.Name, true)
			p.email("email", body.Email)
			draft, err := p.draft()
			if err != nil {
				return Draft{}, err
			}
			if body.Email != nil {
				draft.Unique = []repository.Column{{Name: "email", Value: strings.TrimSpace(*body.Email)}}
			}
			return draft, nil
		},
	}, store, logger)
}

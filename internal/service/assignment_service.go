package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
)

type assignmentCreateRequest struct {
	Title       string   `mapstructure:"title" validate:"required,max=200"`
	Description string   `mapstructure:"description"`
	DueDate     string   `mapstructure:"due_date" validate:"required,calendar_date"`
	Files       []string `mapstructure:"files"`
}

type assignmentUpdateRequest struct {
	Title       *string   `mapstructure:"title"`
	Description *string   `mapstructure:"description"`
	DueDate     *string   `mapstructure:"due_date"`
	Files       *[]string `mapstructure:"files"`
}

// NewAssignmentService manages coursework. Deleting an assignment removes its
// comments in the same transaction.
func NewAssignmentService(store resourceStore[models.Assignment], logger *zap.Logger) *Resource[models.Assignment] {
	return NewResource(ResourceConfig[models.Assignment]{
		Name:     "assignments",
		Label:    "assignment",
		Policy:   auth.PolicyAdmin,
		Required: []string{"title", "due_date"},
		Touch:    "updated_at",
		Create: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body assignmentCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.Title = validation.SanitizeText(body.Title)
				body.Description = validation.SanitizeText(body.Description)
				body.DueDate = strings.TrimSpace(body.DueDate)
			}); err != nil {
				return Draft{}, err
			}
			files, err := cleanList("files", body.Files, nil)
			if err != nil {
				return Draft{}, err
			}
			return Draft{Columns: []repository.Column{
				{Name: "title", Value: body.Title},
				{Name: "description", Value: body.Description},
				{Name: "due_date", Value: body.DueDate},
				{Name: "files", Value: files},
			}}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body assignmentUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("title", body.Title, true)
			p.text("description", body.Description, false)
			p.date("due_date", body.DueDate)
			p.list("files", body.Files, nil)
			return p.draft()
		},
	}, store, logger)
}

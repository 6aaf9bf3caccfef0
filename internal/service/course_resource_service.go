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

type courseResourceCreateRequest struct {
	Title       string `mapstructure:"title" validate:"required,max=200"`
	Description string `mapstructure:"description"`
	Link        string `mapstructure:"link" validate:"required,url,max=2048"`
}

type courseResourceUpdateRequest struct {
	Title       *string `mapstructure:"title"`
	Description *string `mapstructure:"description"`
	Link        *string `mapstructure:"link"`
}

// NewCourseResourceService manages shared course links.
func NewCourseResourceService(store resourceStore[models.Resource], logger *zap.Logger) *Resource[models.Resource] {
	return NewResource(ResourceConfig[models.Resource]{
		Name:     "resources",
		Label:    "resource",
		Policy:   auth.PolicyAdmin,
		Required: []string{"title", "link"},
		Create: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body courseResourceCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.Title = validation.SanitizeText(body.Title)
				body.Description = validation.SanitizeText(body.Description)
				body.Link = strings.TrimSpace(body.Link)
			}); err != nil {
				return Draft{}, err
			}
			return Draft{Columns: []repository.Column{
				{Name: "title", Value: body.Title},
				{Name: "description", Value: body.Description},
				{Name: "link", Value: body.Link},
			}}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body courseResourceUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("title", body.Title, true)
			p.text("description", body.Description, false)
			p.url("link", body.Link)
			return p.draft()
		},
	}, store, logger)
}

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

type weekCreateRequest struct {
	Title       string   `mapstructure:"title" validate:"required,max=200"`
	StartDate   string   `mapstructure:"start_date" validate:"required,calendar_date"`
	Description string   `mapstructure:"description"`
	Links       []string `mapstructure:"links"`
}

type weekUpdateRequest struct {
	Title       *string   `mapstructure:"title"`
	StartDate   *string   `mapstructure:"start_date"`
	Description *string   `mapstructure:"description"`
	Links       *[]string `mapstructure:"links"`
}

// NewWeekService manages the weekly schedule pages.
func NewWeekService(store resourceStore[models.Week], logger *zap.Logger) *Resource[models.Week] {
	return NewResource(ResourceConfig[models.Week]{
		Name:     "weeks",
		Label:    "week",
		Policy:   auth.PolicyAdmin,
		Required: []string{"title", "start_date"},
		Create: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body weekCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.Title = validation.SanitizeText(body.Title)
				body.Description = validation.SanitizeText(body.Description)
				body.StartDate = strings.TrimSpace(body.StartDate)
			}); err != nil {
				return Draft{}, err
			}
			links, err := cleanList("links", body.Links, validation.ValidURL)
			if err != nil {
				return Draft{}, err
			}
			return Draft{Columns: []repository.Column{
				{Name: "title", Value: body.Title},
				{Name: "start_date", Value: body.StartDate},
				{Name: "description", Value: body.Description},
				{Name: "links", Value: links},
			}}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body weekUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("title", body.Title, true)
			p.date("start_date", body.StartDate)
			p.text("description", body.Description, false)
			p.list("links", body.Links, validation.ValidURL)
			return p.draft()
		},
	}, store, logger)
}

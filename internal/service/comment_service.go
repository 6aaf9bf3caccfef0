package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

type commentCreateRequest struct {
	Author string `mapstructure:"author" validate:"max=100"`
	Text   string `mapstructure:"text" validate:"required"`
}

type commentUpdateRequest struct {
	Text *string `mapstructure:"text"`
}

// CommentConfig names a comment table and the parent it hangs off.
type CommentConfig struct {
	Name         string
	ParentLabel  string
	ParentColumn string
	Parent       parentStore
}

// NewCommentService builds the comment resource for one parent kind. The
// author defaults to the signed-in identity.
func NewCommentService[T any](cfg CommentConfig, store resourceStore[T], logger *zap.Logger) *Resource[T] {
	return NewResource(ResourceConfig[T]{
		Name:     cfg.Name,
		Label:    "comment",
		Policy:   auth.PolicyAuthenticated,
		Required: []string{cfg.ParentColumn, "text"},
		Parent:   &Parent{Label: cfg.ParentLabel, Column: cfg.ParentColumn, Store: cfg.Parent},
		Create: func(req request.Request, identity *auth.Identity) (Draft, error) {
			parentID, err := validation.ParseID(req.Field(cfg.ParentColumn))
			if err != nil {
				return Draft{}, appErrors.Validation(fmt.Sprintf("%s must be a positive integer", cfg.ParentColumn))
			}
			var body commentCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.Author = validation.SanitizeText(body.Author)
				body.Text = validation.SanitizeText(body.Text)
				if body.Author == "" && identity != nil {
					body.Author = authorName(identity.Name, identity.UserID)
				}
			}); err != nil {
				return Draft{}, err
			}
			return Draft{Columns: []repository.Column{
				{Name: cfg.ParentColumn, Value: parentID},
				{Name: "author", Value: body.Author},
				{Name: "text", Value: body.Text},
			}}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body commentUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("text", body.Text, true)
			return p.draft()
		},
	}, store, logger)
}

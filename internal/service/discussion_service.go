package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

type topicCreateRequest struct {
	Subject string `mapstructure:"subject" validate:"required,max=200"`
	Message string `mapstructure:"message" validate:"required"`
}

type topicUpdateRequest struct {
	Subject *string `mapstructure:"subject"`
	Message *string `mapstructure:"message"`
}

type replyCreateRequest struct {
	Text string `mapstructure:"text" validate:"required"`
}

type replyUpdateRequest struct {
	Text *string `mapstructure:"text"`
}

// NewTopicService manages discussion board topics. The author is the
// identity that opened the topic and cannot be changed.
func NewTopicService(store resourceStore[models.Topic], logger *zap.Logger) *Resource[models.Topic] {
	return NewResource(ResourceConfig[models.Topic]{
		Name:     "topics",
		Label:    "topic",
		Policy:   auth.PolicyOwner,
		Required: []string{"subject", "message"},
		Owner:    func(t *models.Topic) string { return t.Author },
		Create: func(req request.Request, identity *auth.Identity) (Draft, error) {
			var body topicCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.Subject = validation.SanitizeText(body.Subject)
				body.Message = validation.SanitizeText(body.Message)
			}); err != nil {
				return Draft{}, err
			}
			return Draft{Columns: []repository.Column{
				{Name: "subject", Value: body.Subject},
				{Name: "message", Value: body.Message},
				{Name: "author", Value: identity.UserID},
			}}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body topicUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("subject", body.Subject, true)
			p.text("message", body.Message, true)
			return p.draft()
		},
	}, store, logger)
}

// NewReplyService manages replies to topics.
func NewReplyService(store resourceStore[models.Reply], topics parentStore, logger *zap.Logger) *Resource[models.Reply] {
	return NewResource(ResourceConfig[models.Reply]{
		Name:     "replies",
		Label:    "reply",
		Policy:   auth.PolicyOwner,
		Required: []string{"topic_id", "text"},
		Parent:   &Parent{Label: "topic", Column: "topic_id", Store: topics},
		Owner:    func(r *models.Reply) string { return r.Author },
		Create: func(req request.Request, identity *auth.Identity) (Draft, error) {
			topicID, err := validation.ParseID(req.Field("topic_id"))
			if err != nil {
				return Draft{}, appErrors.Validation("topic_id must be a positive integer")
			}
			var body replyCreateRequest
			if err := decodeCreate(req, &body, func() {
				body.Text = validation.SanitizeText(body.Text)
			}); err != nil {
				return Draft{}, err
			}
			return Draft{Columns: []repository.Column{
				{Name: "topic_id", Value: topicID},
				{Name: "text", Value: body.Text},
				{Name: "author", Value: identity.UserID},
			}}, nil
		},
		Update: func(req request.Request, _ *auth.Identity) (Draft, error) {
			var body replyUpdateRequest
			if err := req.Decode(&body); err != nil {
				return Draft{}, err
			}
			var p patch
			p.text("text", body.Text, true)
			return p.draft()
		},
	}, store, logger)
}

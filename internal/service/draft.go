package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

// decodeCreate fills out from the body, lets clean normalise it and then runs
// the struct's validate tags.
func decodeCreate(req request.Request, out interface{}, clean func()) error {
	if err := req.Decode(out); err != nil {
		return err
	}
	if clean != nil {
		clean()
	}
	if err := validation.Validator().Struct(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Describe(err))
	}
	return nil
}

// patch collects the columns of a partial update. A nil field was not sent
// and is skipped.
type patch struct {
	columns []repository.Column
	err     error
}

func (p *patch) set(name string, value interface{}) {
	p.columns = append(p.columns, repository.Column{Name: name, Value: value})
}

func (p *patch) fail(format string, args ...interface{}) {
	if p.err == nil {
		p.err = appErrors.Validation(fmt.Sprintf(format, args...))
	}
}

// text sanitizes a free-text field. Required fields may not be blanked.
func (p *patch) text(name string, value *string, required bool) {
	if value == nil {
		return
	}
	clean := validation.SanitizeText(*value)
	if required && clean == "" {
		p.fail("%s cannot be empty", name)
		return
	}
	p.set(name, clean)
}

func (p *patch) email(name string, value *string) {
	if value == nil {
		return
	}
	clean := strings.TrimSpace(*value)
	if !validation.ValidEmail(clean) {
		p.fail("%s must be a valid email address", name)
		return
	}
	p.set(name, clean)
}

func (p *patch) url(name string, value *string) {
	if value == nil {
		return
	}
	clean := strings.TrimSpace(*value)
	if !validation.ValidURL(clean) {
		p.fail("%s must be a valid URL", name)
		return
	}
	p.set(name, clean)
}

func (p *patch) date(name string, value *string) {
	if value == nil {
		return
	}
	clean := strings.TrimSpace(*value)
	if !validation.ValidDate(clean, validation.DateLayout) {
		p.fail("%s must be a date in YYYY-MM-DD format", name)
		return
	}
	p.set(name, clean)
}

func (p *patch) list(name string, value *[]string, check func(string) bool) {
	if value == nil {
		return
	}
	items, err := cleanList(name, *value, check)
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		return
	}
	p.set(name, items)
}

func (p *patch) draft() (Draft, error) {
	if p.err != nil {
		return Draft{}, p.err
	}
	return Draft{Columns: p.columns}, nil
}

// cleanList sanitizes every entry and drops blanks. check, when set, must
// accept every remaining entry.
func cleanList(name string, values []string, check func(string) bool) (models.StringList, error) {
	items := models.StringList{}
	for _, raw := range values {
		var item string
		if check != nil {
			item = strings.TrimSpace(raw)
		} else {
			item = validation.SanitizeText(raw)
		}
		if item == "" {
			continue
		}
		if check != nil && !check(item) {
			return nil, appErrors.Validation(fmt.Sprintf("%s contains an invalid entry", name))
		}
		items = append(items, item)
	}
	return items, nil
}

// authorName picks the display name recorded for a post.
func authorName(identityName, userID string) string {
	if name := strings.TrimSpace(identityName); name != "" {
		return name
	}
	return userID
}

// Package request turns an incoming gin request into the method, resource,
// id, query and body values every resource operation works from.
package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"

	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

// maxBodyBytes bounds how much of a request body is read.
const maxBodyBytes = 1 << 20

// Request is the normalised view of an API call.
type Request struct {
	Method   string
	Resource string
	ID       string
	Query    map[string]string
	Body     map[string]any
}

// Normalize extracts the request parts. The resource and id come from the
// path first and the query string second. Bodies are read as a JSON object,
// then as form values, and default to an empty map.
func Normalize(c *gin.Context) (Request, error) {
	req := Request{
		Method:   strings.ToUpper(c.Request.Method),
		Resource: strings.TrimSpace(c.Param("resource")),
		ID:       strings.TrimSpace(c.Param("id")),
		Query:    map[string]string{},
		Body:     map[string]any{},
	}

	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			req.Query[key] = values[0]
		}
	}
	if req.Resource == "" {
		req.Resource = strings.TrimSpace(req.Query["resource"])
	}
	if req.ID == "" {
		req.ID = strings.TrimSpace(req.Query["id"])
	}
	req.Resource = strings.ToLower(req.Resource)

	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return req, nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read request body")
	}
	req.Body = ParseBody(raw)
	return req, nil
}

// ParseBody decodes raw as a JSON object, falling back to form encoding.
// Repeated form keys become string slices.
func ParseBody(raw []byte) map[string]any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return map[string]any{}
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		if obj, ok := decoded.(map[string]any); ok {
			return obj
		}
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return map[string]any{}
	}
	body := make(map[string]any, len(values))
	for key, vals := range values {
		name := strings.TrimSuffix(key, "[]")
		if len(vals) == 1 && name == key {
			body[name] = vals[0]
			continue
		}
		existing, _ := body[name].([]string)
		body[name] = append(existing, vals...)
	}
	return body
}

// Key returns the addressed id: the path or query id when present, then the
// named query parameter, otherwise the named body field.
func (r Request) Key(field string) string {
	if r.ID != "" {
		return r.ID
	}
	if v := strings.TrimSpace(r.Query[field]); v != "" {
		return v
	}
	return r.Field(field)
}

// Addressed reports whether the URL names a single row, either by id or by
// the resource's own key parameter.
func (r Request) Addressed(field string) bool {
	return r.ID != "" || strings.TrimSpace(r.Query[field]) != ""
}

// Field returns a scalar body value as trimmed text. Lists, objects and
// fractional numbers yield "".
func (r Request) Field(name string) string {
	if name == "" {
		return ""
	}
	switch v := r.Body[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
	case json.Number:
		return v.String()
	}
	return ""
}

// Has reports whether the body carries any of the given fields.
func (r Request) Has(fields ...string) bool {
	for _, field := range fields {
		if _, ok := r.Body[field]; ok {
			return true
		}
	}
	return false
}

// Decode copies the body into out, a pointer to a struct tagged with
// mapstructure names. Loose input types are coerced: numbers become strings,
// a lone string becomes a one element list.
func (r Request) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(r.Body); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed request body")
	}
	return nil
}

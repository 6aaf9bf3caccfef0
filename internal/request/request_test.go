package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

func newContext(method, target, body string, params gin.Params) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Params = params
	return c
}

func TestNormalizePrefersPathOverQuery(t *testing.T) {
	c := newContext(http.MethodGet, "/api/v1/assignments/7?resource=topics&id=9&search=hw", "", gin.Params{
		{Key: "resource", Value: "Assignments"},
		{Key: "id", Value: "7"},
	})

	req, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "assignments", req.Resource)
	assert.Equal(t, "7", req.ID)
	assert.Equal(t, "hw", req.Query["search"])
	assert.Empty(t, req.Body)
}

func TestNormalizeFallsBackToQuery(t *testing.T) {
	c := newContext(http.MethodDelete, "/api/v1?resource=resources&id=3", "", nil)

	req, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, "resources", req.Resource)
	assert.Equal(t, "3", req.ID)
}

func TestNormalizeReadsJSONBody(t *testing.T) {
	c := newContext(http.MethodPost, "/api/v1/assignments", `{"title":"HW1","files":["a.pdf"]}`, gin.Params{{Key: "resource", Value: "assignments"}})

	req, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, "HW1", req.Body["title"])
	assert.Equal(t, []any{"a.pdf"}, req.Body["files"])
}

func TestParseBodyFallbacks(t *testing.T) {
	form := ParseBody([]byte("title=HW1&files[]=a.pdf&tags=x&tags=y"))
	assert.Equal(t, "HW1", form["title"])
	assert.Equal(t, []string{"a.pdf"}, form["files"])
	assert.Equal(t, []string{"x", "y"}, form["tags"])

	assert.Empty(t, ParseBody(nil))
	assert.Empty(t, ParseBody([]byte("   ")))
	assert.Empty(t, ParseBody([]byte("%zz")))

	arr := ParseBody([]byte(`["a"]`))
	assert.NotContains(t, arr, "title")
}

func TestKeyFallsBackToBody(t *testing.T) {
	req := Request{Body: map[string]any{"student_id": " S-1 ", "id": float64(12)}}
	assert.Equal(t, "S-1", req.Key("student_id"))
	assert.Equal(t, "12", req.Key("id"))
	assert.Equal(t, "", req.Key("missing"))

	req.ID = "5"
	assert.Equal(t, "5", req.Key("id"))
}

func TestKeyReadsNamedQueryParameter(t *testing.T) {
	req := Request{
		Query: map[string]string{"student_id": " S-2 "},
		Body:  map[string]any{"student_id": "S-1"},
	}
	assert.Equal(t, "S-2", req.Key("student_id"))
	assert.True(t, req.Addressed("student_id"))
	assert.False(t, req.Addressed("id"))

	assert.False(t, Request{Query: map[string]string{"search": "S-1"}}.Addressed("student_id"))
	assert.True(t, Request{ID: "3"}.Addressed("id"))
}

func TestDecodeWeakTypes(t *testing.T) {
	type update struct {
		Title        *string   `mapstructure:"title"`
		AssignmentID int64     `mapstructure:"assignment_id"`
		Files        *[]string `mapstructure:"files"`
		Description  *string   `mapstructure:"description"`
	}

	req := Request{Body: map[string]any{
		"title":         float64(101),
		"assignment_id": "4",
		"files":         "one.pdf",
	}}
	var out update
	require.NoError(t, req.Decode(&out))
	require.NotNil(t, out.Title)
	assert.Equal(t, "101", *out.Title)
	assert.Equal(t, int64(4), out.AssignmentID)
	require.NotNil(t, out.Files)
	assert.Equal(t, []string{"one.pdf"}, *out.Files)
	assert.Nil(t, out.Description)

	bad := Request{Body: map[string]any{"assignment_id": map[string]any{"x": 1}}}
	err := bad.Decode(&out)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestField(t *testing.T) {
	req := Request{ID: "9", Body: map[string]any{"assignment_id": float64(3), "ratio": 1.5, "files": []any{"a"}}}
	assert.Equal(t, "3", req.Field("assignment_id"))
	assert.Equal(t, "", req.Field("ratio"))
	assert.Equal(t, "", req.Field("files"))
	assert.True(t, req.Has("ratio", "nope"))
	assert.False(t, req.Has("nope"))
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/service"
	"github.com/noah-isme/course-portal-api/pkg/database"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	db     *sqlx.DB
	router *gin.Engine
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	hasher := &auth.BcryptHasher{Cost: bcrypt.MinCost}
	staffHash, err := hasher.Hash("staffpass")
	require.NoError(t, err)

	tokens := auth.NewTokenIssuer(auth.TokenConfig{Secret: "router-secret", Expiration: time.Hour, Issuer: "course-portal"})
	authService := service.NewAuthService(
		repository.NewCredentialsRepository(db),
		repository.NewRevocationRepository(nil),
		hasher,
		tokens,
		service.StaffAccount{Username: "teacher", PasswordHash: staffHash, Role: models.RoleTeacher},
		zap.NewNop(),
	)

	router := NewRouter(RouterConfig{
		APIPrefix: "/api/v1",
		Catalog:   service.NewCourseCatalog(db, hasher, zap.NewNop()),
		Auth:      authService,
		Exports:   service.NewExportService(repository.NewStore[models.Student](db, repository.StudentsTable), zap.NewNop()),
		Metrics:   service.NewMetricsService(),
		DB:        db,
		Logger:    zap.NewNop(),
	})
	return &testServer{t: t, db: db, router: router, tokens: tokens}
}

func (s *testServer) token(userID, name string, role models.Role) string {
	s.t.Helper()
	token, _, err := s.tokens.Issue(auth.Identity{UserID: userID, Name: name, Role: role})
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	switch {
	case body == "":
	case strings.HasPrefix(strings.TrimSpace(body), "{"):
		req.Header.Set("Content-Type", "application/json")
	default:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) count(table string) int {
	s.t.Helper()
	var n int
	require.NoError(s.t, s.db.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)))
	return n
}

func TestAssignmentLifecycleCascadesComments(t *testing.T) {
	s := newTestServer(t)
	staff := s.token("teacher", "teacher", models.RoleTeacher)
	student := s.token("S-1", "Ada", models.RoleStudent)

	rec, env := s.do(http.MethodPost, "/api/v1/assignments", `{"title":"HW1","description":"Read ch. 1","due_date":"2024-03-01"}`, staff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "Assignment created", env.Message)

	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "2024-03-01", created["due_date"])
	assert.Equal(t, []any{}, created["files"])

	rec, _ = s.do(http.MethodGet, "/api/v1/assignments/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/assignment_comments", `{"assignment_id":1,"text":"<script>x</script>When is it due?"}`, student)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var comment map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &comment))
	assert.Equal(t, "Ada", comment["author"])
	assert.Equal(t, "When is it due?", comment["text"])

	rec, env = s.do(http.MethodGet, "/api/v1/assignment_comments?assignment_id=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var comments []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	assert.Len(t, comments, 1)

	rec, env = s.do(http.MethodDelete, "/api/v1/assignments/1", "", staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Assignment deleted", env.Message)
	assert.Zero(t, s.count("assignment_comments"))

	rec, env = s.do(http.MethodGet, "/api/v1/assignments/1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "assignment not found", env.Error)

	rec, env = s.do(http.MethodGet, "/api/v1/assignment_comments?assignment_id=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestFormEncodedCreateAndQueryAddressing(t *testing.T) {
	s := newTestServer(t)
	staff := s.token("teacher", "teacher", models.RoleTeacher)

	rec, env := s.do(http.MethodPost, "/api/v1?resource=weeks", "title=Week+1&start_date=2024-09-02&links[]=https://example.edu/a&links[]=https://example.edu/b", staff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var week map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &week))
	assert.Equal(t, []any{"https://example.edu/a", "https://example.edu/b"}, week["links"])

	rec, _ = s.do(http.MethodGet, "/api/v1?resource=weeks&id=1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/weeks", "title=Week+2&start_date=2024-09-09&links[]=not a url", staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "links contains an invalid entry", env.Error)
}

func TestCommentOnMissingParentWritesNothing(t *testing.T) {
	s := newTestServer(t)
	student := s.token("S-1", "Ada", models.RoleStudent)

	rec, env := s.do(http.MethodPost, "/api/v1/week_comments", `{"week_id":42,"text":"hello"}`, student)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "week not found", env.Error)
	assert.Zero(t, s.count("week_comments"))
}

func TestTopicOwnership(t *testing.T) {
	s := newTestServer(t)
	ada := s.token("S-1", "Ada", models.RoleStudent)
	bob := s.token("S-2", "Bob", models.RoleStudent)
	staff := s.token("teacher", "teacher", models.RoleTeacher)

	rec, env := s.do(http.MethodPost, "/api/v1/topics", `{"subject":"Exam","message":"When is it?"}`, ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var topic map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &topic))
	assert.Equal(t, "S-1", topic["author"])

	rec, _ = s.do(http.MethodPost, "/api/v1/replies", `{"topic_id":1,"text":"Friday"}`, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPut, "/api/v1/topics/1", `{"subject":"Hijacked"}`, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPut, "/api/v1/topics/1", `{"subject":"Midterm exam"}`, ada)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Topic updated", env.Message)

	rec, _ = s.do(http.MethodDelete, "/api/v1/topics/1", "", bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/v1/topics/1", "", staff)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.count("replies"))
}

func TestStudentRosterRules(t *testing.T) {
	s := newTestServer(t)
	staff := s.token("teacher", "teacher", models.RoleTeacher)
	student := s.token("S-1", "Ada", models.RoleStudent)
	payload := `{"student_id":"S-1","name":"Ada","email":"ada@example.edu","password":"longenough"}`

	rec, _ := s.do(http.MethodPost, "/api/v1/students", payload, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/students", payload, student)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(http.MethodPost, "/api/v1/students", payload, staff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, string(env.Data), "password")

	rec, env = s.do(http.MethodPost, "/api/v1/students", `{"student_id":"S-2","name":"Bob","email":"ada@example.edu","password":"longenough"}`, staff)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "student already exists", env.Error)
	assert.Equal(t, 1, s.count("students"))

	rec, env = s.do(http.MethodPost, "/api/v1/students", `{"student_id":"S-3","name":""}`, staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required fields: name, email, password", env.Error)

	rec, env = s.do(http.MethodPut, "/api/v1/students/S-1", `{"unknown":"x"}`, staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no fields to update", env.Error)

	rec, _ = s.do(http.MethodPut, "/api/v1/students/S-404", `{"name":"Nobody"}`, staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/students?sort=name%3BDROP%20TABLE%20students&order=sideways", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var students []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &students))
	assert.Len(t, students, 1)
}

func TestStudentAddressedByQueryParameter(t *testing.T) {
	s := newTestServer(t)
	staff := s.token("teacher", "teacher", models.RoleTeacher)
	for _, payload := range []string{
		`{"student_id":"S-1","name":"Ada","email":"ada@example.edu","password":"longenough"}`,
		`{"student_id":"S-2","name":"Bob","email":"bob@example.edu","password":"longenough"}`,
	} {
		rec, _ := s.do(http.MethodPost, "/api/v1/students", payload, staff)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := s.do(http.MethodGet, "/api/v1?resource=students&student_id=S-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var student map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &student))
	assert.Equal(t, "S-1", student["student_id"])

	rec, env = s.do(http.MethodDelete, "/api/v1?resource=students&student_id=S-1", "", staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Student deleted", env.Message)
	assert.Equal(t, 1, s.count("students"))

	rec, _ = s.do(http.MethodGet, "/api/v1/students?student_id=S-1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	s := newTestServer(t)
	staff := s.token("teacher", "teacher", models.RoleTeacher)
	for _, title := range []string{"Week 1", "100% review"} {
		rec, _ := s.do(http.MethodPost, "/api/v1/weeks", fmt.Sprintf(`{"title":%q,"start_date":"2024-09-02"}`, title), staff)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := s.do(http.MethodGet, "/api/v1/weeks?search=%25", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var weeks []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &weeks))
	require.Len(t, weeks, 1)
	assert.Equal(t, "100% review", weeks[0]["title"])

	rec, env = s.do(http.MethodGet, "/api/v1/weeks?search=Week_1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestLoginChangePasswordAndMe(t *testing.T) {
	s := newTestServer(t)
	staffLogin, env := s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"teacher","password":"staffpass"}`, "")
	require.Equal(t, http.StatusOK, staffLogin.Code, staffLogin.Body.String())
	var staff models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &staff))
	assert.Equal(t, models.RoleTeacher, staff.User.Role)

	rec, _ := s.do(http.MethodPost, "/api/v1/students", `{"student_id":"S-1","name":"Ada","email":"ada@example.edu","password":"firstpass"}`, staff.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"S-1","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/auth/login", "username=ada%40example.edu&password=firstpass", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, "S-1", login.User.ID)

	rec, env = s.do(http.MethodGet, "/api/v1/auth/me", "", login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"S-1","name":"Ada","role":"student"}`, string(env.Data))

	rec, _ = s.do(http.MethodPost, "/api/v1/students?action=change_password",
		`{"student_id":"S-1","current_password":"firstpass","new_password":"secondpass"}`, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"S-1","password":"firstpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"S-1","password":"secondpass"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(http.MethodPost, "/api/v1/auth/logout", "", login.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDispatcherRejections(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/api/v1/grades", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `unknown resource "grades"`, env.Error)

	rec, env = s.do(http.MethodGet, "/api/v1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "resource is required", env.Error)

	rec, _ = s.do(http.MethodPatch, "/api/v1/topics/1", `{"subject":"x"}`, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Allow"))

	rec, _ = s.do(http.MethodOptions, "/api/v1/topics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/assignments/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/replies", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "topic_id is required", env.Error)

	rec, _ = s.do(http.MethodGet, "/api/v1/assignments", "", "not-a-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStudentExportRequiresStaff(t *testing.T) {
	s := newTestServer(t)
	staff := s.token("teacher", "teacher", models.RoleTeacher)

	rec, _ := s.do(http.MethodGet, "/api/v1/exports/students", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/exports/students", "", s.token("S-1", "Ada", models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/exports/students?format=csv", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "students_")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Student ID,Name,Email,Registered"))
}

func TestProbesAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(http.MethodGet, "/api/v1/topics", "", "")
	rec, _ = s.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `course_resource_operations_total{operation="list",resource="topics",status="200"} 1`)
}

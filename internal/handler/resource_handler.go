package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-portal-api/internal/middleware"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/service"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
	"github.com/noah-isme/course-portal-api/pkg/response"
)

const actionChangePassword = "change_password"

const allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"

// ResourceHandler dispatches every CRUD route to the resource service named
// in the path or the resource query parameter.
type ResourceHandler struct {
	catalog *service.Catalog
	auth    *service.AuthService
	metrics *service.MetricsService
}

// NewResourceHandler constructs a ResourceHandler.
func NewResourceHandler(catalog *service.Catalog, auth *service.AuthService, metrics *service.MetricsService) *ResourceHandler {
	return &ResourceHandler{catalog: catalog, auth: auth, metrics: metrics}
}

// Register mounts the dispatcher on the prefix, /:resource and /:resource/:id.
func (h *ResourceHandler) Register(group *gin.RouterGroup) {
	group.Any("", h.Dispatch)
	group.Any("/:resource", h.Dispatch)
	group.Any("/:resource/:id", h.Dispatch)
}

// Dispatch godoc
// @Summary Course resource CRUD
// @Description GET lists or fetches, POST creates, PUT partially updates and DELETE removes. Resources: students, assignments, assignment_comments, resources, resource_comments, topics, replies, weeks, week_comments.
// @Tags Resources
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path string false "Row id (student_id for students)"
// @Param student_id query string false "Addresses one student when used with resource=students"
// @Param search query string false "Case-insensitive search"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Param action query string false "change_password (students, POST only)"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 405 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /{resource}/{id} [get]
// @Router /{resource}/{id} [put]
// @Router /{resource}/{id} [delete]
// @Router /{resource} [get]
// @Router /{resource} [post]
func (h *ResourceHandler) Dispatch(c *gin.Context) {
	req, err := request.Normalize(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.Resource == "" {
		response.Error(c, appErrors.Validation("resource is required"))
		return
	}
	svc, ok := h.catalog.Lookup(req.Resource)
	if !ok {
		response.Error(c, appErrors.Validation(fmt.Sprintf("unknown resource %q", req.Resource)))
		return
	}

	identity := middleware.CurrentIdentity(c)
	ctx := c.Request.Context()

	var (
		result    *service.Result
		operation string
	)
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		if req.Addressed(svc.KeyField()) {
			operation = "get"
			result, err = svc.Get(ctx, req)
		} else {
			operation = "list"
			result, err = svc.List(ctx, req)
		}
	case http.MethodPost:
		action := strings.ToLower(strings.TrimSpace(req.Query["action"]))
		switch {
		case action == "":
			operation = "create"
			result, err = svc.Create(ctx, req, identity)
		case action == actionChangePassword && svc.Name() == "students":
			operation = actionChangePassword
			if err = h.auth.ChangePassword(ctx, req, identity); err == nil {
				result = &service.Result{Status: http.StatusOK, Message: "password updated"}
			}
		default:
			operation = "action"
			err = appErrors.Validation(fmt.Sprintf("unknown action %q", action))
		}
	case http.MethodPut:
		operation = "update"
		result, err = svc.Update(ctx, req, identity)
	case http.MethodDelete:
		operation = "delete"
		result, err = svc.Delete(ctx, req, identity)
	default:
		c.Header("Allow", allowedMethods)
		operation = "unsupported"
		err = appErrors.Clone(appErrors.ErrMethodNotAllowed, fmt.Sprintf("method %s not supported for %s", req.Method, req.Resource))
	}

	if err != nil {
		h.metrics.RecordResourceOperation(svc.Name(), operation, appErrors.FromError(err).Status)
		response.Error(c, err)
		return
	}
	h.metrics.RecordResourceOperation(svc.Name(), operation, result.Status)
	response.Message(c, result.Status, result.Message, result.Data)
}

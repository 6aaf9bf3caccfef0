package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
	"github.com/noah-isme/course-portal-api/pkg/export"
)

type studentLister interface {
	List(ctx context.Context, q repository.ListQuery) ([]models.Student, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the student roster for staff.
type ExportService struct {
	students  studentLister
	renderers map[string]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(students studentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Students renders the roster, ordered like the default student list, in the
// requested format.
func (s *ExportService) Students(ctx context.Context, format string, identity *auth.Identity) (*ExportFile, error) {
	if identity == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !identity.Elevated() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher or admin role required")
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Validation("format must be csv or pdf")
	}

	students, err := s.students.List(ctx, repository.ListQuery{})
	if err != nil {
		s.logger.Error("list students for export failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load students")
	}

	dataset := export.Dataset{
		Title:   "Student Roster",
		Headers: []string{"Student ID", "Name", "Email", "Registered"},
		Rows:    make([][]string, 0, len(students)),
	}
	for _, st := range students {
		dataset.Rows = append(dataset.Rows, []string{
			html.UnescapeString(st.StudentID),
			html.UnescapeString(st.Name),
			st.Email,
			st.CreatedAt.UTC().Format("2006-01-02"),
		})
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("render export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("students_%s.%s", s.now().UTC().Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

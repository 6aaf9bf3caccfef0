package service

import (
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
)

// Catalog maps resource names to their services.
type Catalog struct {
	services map[string]ResourceService
}

// NewCatalog registers services under their names.
func NewCatalog(services ...ResourceService) *Catalog {
	c := &Catalog{services: make(map[string]ResourceService, len(services))}
	for _, svc := range services {
		c.services[svc.Name()] = svc
	}
	return c
}

// NewCourseCatalog wires every course resource against db.
func NewCourseCatalog(db *sqlx.DB, hasher auth.PasswordHasher, logger *zap.Logger) *Catalog {
	assignments := repository.NewStore[models.Assignment](db, repository.AssignmentsTable)
	resources := repository.NewStore[models.Resource](db, repository.ResourcesTable)
	topics := repository.NewStore[models.Topic](db, repository.TopicsTable)
	weeks := repository.NewStore[models.Week](db, repository.WeeksTable)

	return NewCatalog(
		NewStudentService(repository.NewStore[models.Student](db, repository.StudentsTable), hasher, logger),
		NewAssignmentService(assignments, logger),
		NewCommentService[models.AssignmentComment](CommentConfig{
			Name:         "assignment_comments",
			ParentLabel:  "assignment",
			ParentColumn: "assignment_id",
			Parent:       assignments,
		}, repository.NewStore[models.AssignmentComment](db, repository.AssignmentCommentsTable), logger),
		NewCourseResourceService(resources, logger),
		NewCommentService[models.ResourceComment](CommentConfig{
			Name:         "resource_comments",
			ParentLabel:  "resource",
			ParentColumn: "resource_id",
			Parent:       resources,
		}, repository.NewStore[models.ResourceComment](db, repository.ResourceCommentsTable), logger),
		NewTopicService(topics, logger),
		NewReplyService(repository.NewStore[models.Reply](db, repository.RepliesTable), topics, logger),
		NewWeekService(weeks, logger),
		NewCommentService[models.WeekComment](CommentConfig{
			Name:         "week_comments",
			ParentLabel:  "week",
			ParentColumn: "week_id",
			Parent:       weeks,
		}, repository.NewStore[models.WeekComment](db, repository.WeekCommentsTable), logger),
	)
}

// Lookup returns the service registered under name.
func (c *Catalog) Lookup(name string) (ResourceService, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Names lists the registered resources in alphabetical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package repository

// Table descriptors for every stored resource. Column lists never include
// secrets such as students.password_hash.
var (
	StudentsTable = Table{
		Name:          "students",
		Key:           "student_id",
		Columns:       []string{"id", "student_id", "name", "email", "created_at"},
		SearchColumns: []string{"name", "student_id", "email"},
		SortColumns:   []string{"name", "student_id", "email", "created_at"},
		DefaultSort:   "name",
		DefaultOrder:  "asc",
	}

	AssignmentsTable = Table{
		Name:          "assignments",
		Key:           "id",
		Columns:       []string{"id", "title", "description", "due_date", "files", "created_at", "updated_at"},
		SearchColumns: []string{"title", "description"},
		SortColumns:   []string{"title", "due_date", "created_at", "id"},
		DefaultSort:   "created_at",
		DefaultOrder:  "desc",
		Children:      []Child{{Table: "assignment_comments", ForeignKey: "assignment_id"}},
	}

	AssignmentCommentsTable = commentTable("assignment_comments", "assignment_id")

	ResourcesTable = Table{
		Name:          "resources",
		Key:           "id",
		Columns:       []string{"id", "title", "description", "link", "created_at"},
		SearchColumns: []string{"title", "description"},
		SortColumns:   []string{"title", "created_at", "id"},
		DefaultSort:   "created_at",
		DefaultOrder:  "desc",
		Children:      []Child{{Table: "resource_comments", ForeignKey: "resource_id"}},
	}

	ResourceCommentsTable = commentTable("resource_comments", "resource_id")

	TopicsTable = Table{
		Name:          "topics",
		Key:           "id",
		Columns:       []string{"id", "subject", "message", "author", "created_at"},
		SearchColumns: []string{"subject", "message", "author"},
		SortColumns:   []string{"subject", "author", "created_at", "id"},
		DefaultSort:   "created_at",
		DefaultOrder:  "desc",
		Children:      []Child{{Table: "replies", ForeignKey: "topic_id"}},
	}

	RepliesTable = Table{
		Name:          "replies",
		Key:           "id",
		Columns:       []string{"id", "topic_id", "text", "author", "created_at"},
		SearchColumns: []string{"text", "author"},
		SortColumns:   []string{"created_at", "author", "id"},
		DefaultSort:   "created_at",
		DefaultOrder:  "asc",
	}

	WeeksTable = Table{
		Name:          "weeks",
		Key:           "id",
		Columns:       []string{"id", "title", "start_date", "description", "links", "created_at"},
		SearchColumns: []string{"title", "description"},
		SortColumns:   []string{"title", "start_date", "created_at", "id"},
		DefaultSort:   "start_date",
		DefaultOrder:  "asc",
		Children:      []Child{{Table: "week_comments", ForeignKey: "week_id"}},
	}

	WeekCommentsTable = commentTable("week_comments", "week_id")
)

func commentTable(name, parentColumn string) Table {
	return Table{
		Name:          name,
		Key:           "id",
		Columns:       []string{"id", parentColumn, "author", "text", "created_at"},
		SearchColumns: []string{"author", "text"},
		SortColumns:   []string{"created_at", "author", "id"},
		DefaultSort:   "created_at",
		DefaultOrder:  "asc",
	}
}

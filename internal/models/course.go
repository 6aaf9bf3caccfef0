package models

import "time"

// Assignment is a piece of coursework with attached file references.
type Assignment struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	DueDate     Date       `db:"due_date" json:"due_date"`
	Files       StringList `db:"files" json:"files"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AssignmentComment is a discussion entry attached to an assignment.
type AssignmentComment struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignment_id"`
	Author       string    `db:"author" json:"author"`
	Text         string    `db:"text" json:"text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Resource is a course link shared with students.
type Resource struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Link        string    `db:"link" json:"link"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ResourceComment is a discussion entry attached to a resource.
type ResourceComment struct {
	ID         int64     `db:"id" json:"id"`
	ResourceID int64     `db:"resource_id" json:"resource_id"`
	Author     string    `db:"author" json:"author"`
	Text       string    `db:"text" json:"text"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Week is one entry of the weekly schedule.
type Week struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	StartDate   Date       `db:"start_date" json:"start_date"`
	Description string     `db:"description" json:"description"`
	Links       StringList `db:"links" json:"links"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// WeekComment is a discussion entry attached to a week.
type WeekComment struct {
	ID        int64     `db:"id" json:"id"`
	WeekID    int64     `db:"week_id" json:"week_id"`
	Author    string    `db:"author" json:"author"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

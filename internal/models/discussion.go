package models

import "time"

// Topic opens a thread on the discussion board. Author is fixed at creation.
type Topic struct {
	ID        int64     `db:"id" json:"id"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	Author    string    `db:"author" json:"author"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reply answers a topic.
type Reply struct {
	ID        int64     `db:"id" json:"id"`
	TopicID   int64     `db:"topic_id" json:"topic_id"`
	Text      string    `db:"text" json:"text"`
	Author    string    `db:"author" json:"author"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

package models

import "time"

// Student is a roster entry. The password hash is deliberately absent; it is
// only reachable through StudentCredentials.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentCredentials carries the secret half of a student row.
type StudentCredentials struct {
	StudentID    string `db:"student_id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
}

package models

import "time"

// Course is keyed by its natural code (e.g. "CSC401"); course_id is the
// central store's surrogate key, carried along for round-tripping.
type Course struct {
	Code      string    `db:"code" json:"code"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

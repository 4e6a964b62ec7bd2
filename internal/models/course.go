package models

import "time"

// CourseType enumerates the delivery formats of a course.
type CourseType string

const (
	CourseTypeTheory   CourseType = "THEORY"
	CourseTypeRevision CourseType = "REVISION"
	CourseTypePaper    CourseType = "PAPER"
)

// Course is a subject taught by a teacher to one grade and batch. Name and
// code are always derived from subject, teacher, grade and batch; they are
// never accepted from input.
type Course struct {
	ID         string     `db:"id" json:"id"`
	SubjectID  string     `db:"subject_id" json:"subject_id"`
	TeacherID  string     `db:"teacher_id" json:"teacher_id"`
	Grade      GradeType  `db:"grade" json:"grade"`
	Batch      int        `db:"batch" json:"batch"`
	CourseType CourseType `db:"course_type" json:"course_type"`
	Name       string     `db:"name" json:"name"`
	Code       string     `db:"code" json:"code"`
	Fee        *float64   `db:"fee" json:"fee"`
	Enabled    bool       `db:"enabled" json:"enabled"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseDetail resolves subject and teacher on read.
type CourseDetail struct {
	Course
	Subject SubjectRef `db:"subject" json:"subject"`
	Teacher UserRef    `db:"teacher" json:"teacher"`
}

// CourseRef is the embedded shape enrollments and events expose.
type CourseRef struct {
	ID   string   `db:"id" json:"id"`
	Name string   `db:"name" json:"name"`
	Code string   `db:"code" json:"code"`
	Fee  *float64 `db:"fee" json:"fee"`
}

// CourseTopic is a syllabus entry under a course. Topics are replaced as a
// set through the bulk upsert endpoint.
type CourseTopic struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

package models

import "time"

// GradeType enumerates the grades a student or course can belong to.
type GradeType string

const (
	Grade6  GradeType = "GRADE_6"
	Grade7  GradeType = "GRADE_7"
	Grade8  GradeType = "GRADE_8"
	Grade9  GradeType = "GRADE_9"
	Grade10 GradeType = "GRADE_10"
	Grade11 GradeType = "GRADE_11"
	Grade12 GradeType = "GRADE_12"
	Grade13 GradeType = "GRADE_13"
)

// Student represents a learner registered in the institution. The student
// number is unique and immutable after creation.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	Grade         GradeType `db:"grade" json:"grade"`
	UserID        string    `db:"user_id" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail resolves the linked credentials user on read.
type StudentDetail struct {
	Student
	User UserRef `db:"user" json:"user"`
}

// StudentRef is the embedded shape other resources expose for a student.
type StudentRef struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	Grade         GradeType `db:"grade" json:"grade"`
}

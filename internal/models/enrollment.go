package models

import "time"

// EnrollmentStatus enumerates the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive EnrollmentStatus = "ACTIVE"
	EnrollmentStatusLocked EnrollmentStatus = "LOCKED"
)

// Enrollment links a student to a course and tracks the last month the
// student paid for.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	CourseID         string           `db:"course_id" json:"course_id"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	LastPaymentMonth int              `db:"last_payment_month" json:"last_payment_month"`
	LastPaymentYear  int              `db:"last_payment_year" json:"last_payment_year"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail resolves the student and course on read.
type EnrollmentDetail struct {
	Enrollment
	Student StudentRef `db:"student" json:"student"`
	Course  CourseRef  `db:"course" json:"course"`
}

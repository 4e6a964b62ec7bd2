package models

import "time"

// PaymentType distinguishes admission fees from monthly course fees.
type PaymentType string

const (
	PaymentTypeAdmission PaymentType = "ADMISSION"
	PaymentTypeCourse    PaymentType = "COURSE"
)

// Payment is a received student payment. For course payments the amount is
// always the sum of the covered enrollments' course fees, recomputed
// server-side.
type Payment struct {
	ID          string      `db:"id" json:"id"`
	StudentID   string      `db:"student_id" json:"student_id"`
	PaymentType PaymentType `db:"payment_type" json:"payment_type"`
	Amount      float64     `db:"amount" json:"amount"`
	MonthNumber int         `db:"month_number" json:"month_number"`
	YearNumber  int         `db:"year_number" json:"year_number"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// PaymentDetail resolves the paying student on read.
type PaymentDetail struct {
	Payment
	Student StudentRef `db:"student" json:"student"`
}

// EnrollmentPayment links a course payment to one covered enrollment with
// the fee charged for it at payment time.
type EnrollmentPayment struct {
	ID           string    `db:"id" json:"id"`
	PaymentID    string    `db:"payment_id" json:"payment_id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	Fee          float64   `db:"fee" json:"fee"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentPaymentDetail adds course context to an enrollment payment row.
type EnrollmentPaymentDetail struct {
	EnrollmentPayment
	Course CourseRef `db:"course" json:"course"`
}

package models

import "time"

// GenderType enumerates guardian gender options.
type GenderType string

const (
	GenderMale   GenderType = "MALE"
	GenderFemale GenderType = "FEMALE"
	GenderOther  GenderType = "OTHER"
)

// Guardian is a student's responsible adult. The NIC number follows the
// national format (9 digits + V or 12 digits) and the phone number is
// exactly 10 digits; both are validated before any write.
type Guardian struct {
	ID          string     `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	NICNumber   string     `db:"nic_number" json:"nic_number"`
	PhoneNumber string     `db:"phone_number" json:"phone_number"`
	Gender      GenderType `db:"gender" json:"gender"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

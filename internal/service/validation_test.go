package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/classora/classora-api/pkg/errors"
)

func TestValidationErrorMessages(t *testing.T) {
	v := NewValidator()

	err := v.Struct(GuardianRequest{})
	require.Error(t, err)

	appErr := appErrors.FromError(validationError(err))
	require.NotNil(t, appErr.Validation)
	assert.Contains(t, appErr.Validation["first_name"], "First Name is required!")
	assert.Contains(t, appErr.Validation["last_name"], "Last Name is required!")
	assert.Contains(t, appErr.Validation["nic_number"], "NIC Number is required!")
	assert.Contains(t, appErr.Validation["phone_number"], "Phone Number is required!")
}

func TestValidationNICFormat(t *testing.T) {
	v := NewValidator()

	req := GuardianRequest{
		FirstName:   "Nimal",
		LastName:    "Perera",
		NICNumber:   "12345",
		PhoneNumber: "0771234567",
		Gender:      "MALE",
	}
	err := v.Struct(req)
	require.Error(t, err)

	appErr := appErrors.FromError(validationError(err))
	assert.Contains(t, appErr.Validation["nic_number"], "NIC number must be in the format 123456789V or 200012345678")

	req.NICNumber = "923456789V"
	assert.NoError(t, v.Struct(req))

	req.NICNumber = "200012345678"
	assert.NoError(t, v.Struct(req))
}

func TestValidationPhoneFormat(t *testing.T) {
	v := NewValidator()

	req := GuardianRequest{
		FirstName:   "Nimal",
		LastName:    "Perera",
		NICNumber:   "923456789V",
		PhoneNumber: "077-123",
		Gender:      "FEMALE",
	}
	err := v.Struct(req)
	require.Error(t, err)

	appErr := appErrors.FromError(validationError(err))
	assert.Contains(t, appErr.Validation["phone_number"], "Contact Number must be exactly 10 digits")
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "First Name", fieldLabel("first_name"))
	assert.Equal(t, "NIC Number", fieldLabel("nic_number"))
	assert.Equal(t, "Student ID", fieldLabel("student_id"))
}

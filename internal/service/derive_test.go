package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classora/classora-api/internal/models"
)

func TestRoleKey(t *testing.T) {
	assert.Equal(t, "front_desk", RoleKey("Front Desk"))
	assert.Equal(t, "super_admin", RoleKey("  Super   Admin "))
	assert.Equal(t, "teacher", RoleKey("Teacher"))
	assert.Equal(t, "", RoleKey("   "))
	assert.Equal(t, "front_desk", RoleKey("Front Desk--"))
	assert.Equal(t, "-co_teacher", RoleKey("-Co Teacher-"))
}

func TestSubjectCode(t *testing.T) {
	assert.Equal(t, "PURE-MATHEMATICS", SubjectCode("Pure Mathematics"))
	assert.Equal(t, "PHYSICS", SubjectCode(" Physics "))
	assert.Equal(t, "ICT", SubjectCode("I.C.T"))
}

func TestCourseNameDeterministic(t *testing.T) {
	name := CourseName(models.Grade10, "Mathematics", "John", "Doe", 2)
	assert.Equal(t, "Grade 10 Mathematics - John Doe (Batch 2)", name)
	assert.Equal(t, name, CourseName(models.Grade10, "Mathematics", "John", "Doe", 2))
}

func TestCourseCode(t *testing.T) {
	assert.Equal(t, "G10-MATH-JD-B2", CourseCode(models.Grade10, "MATH", "John", "Doe", 2))
	assert.Equal(t, "G13-COMBINED-MATHS-AP-B1", CourseCode(models.Grade13, "COMBINED-MATHS", "Anne", "Perera", 1))
	assert.Equal(t, "G6-ICT-S-B3", CourseCode(models.Grade6, "ict", "Saman", "", 3))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "", MonthName(13))
}

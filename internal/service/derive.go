package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/classora/classora-api/internal/models"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// RoleKey derives the stable key from a role name: lowercase, whitespace
// collapsed to underscores, trailing hyphens trimmed.
func RoleKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Join(strings.Fields(key), "_")
	return strings.TrimRight(key, "-")
}

// SubjectCode derives an upper-case code from a subject name, e.g.
// "Pure Mathematics" becomes "PURE-MATHEMATICS".
func SubjectCode(name string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	return strings.ToUpper(slug)
}

// gradeShort maps GRADE_10 to G10 for course codes.
func gradeShort(grade models.GradeType) string {
	number := strings.TrimPrefix(string(grade), "GRADE_")
	return "G" + number
}

// gradeLabel maps GRADE_10 to "Grade 10" for course names.
func gradeLabel(grade models.GradeType) string {
	return "Grade " + strings.TrimPrefix(string(grade), "GRADE_")
}

// teacherInitials builds the initials from a teacher's first and last name,
// e.g. "John", "Doe" becomes "JD". Either part may be empty.
func teacherInitials(firstName, lastName string) string {
	var b strings.Builder
	for _, part := range []string{strings.TrimSpace(firstName), strings.TrimSpace(lastName)} {
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]))
		}
	}
	return b.String()
}

// CourseName derives the display name of a course from its parts. It is a
// pure function of grade, subject name, teacher name and batch so the same
// inputs always produce the same name.
func CourseName(grade models.GradeType, subjectName, firstName, lastName string, batch int) string {
	teacher := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	return fmt.Sprintf("%s %s - %s (Batch %d)", gradeLabel(grade), strings.TrimSpace(subjectName), teacher, batch)
}

// CourseCode derives the short code of a course from the subject code and
// the teacher's initials, e.g. "G10-MATH-JD-B2".
func CourseCode(grade models.GradeType, subjectCode, firstName, lastName string, batch int) string {
	parts := []string{gradeShort(grade), strings.ToUpper(strings.TrimSpace(subjectCode)), teacherInitials(firstName, lastName), fmt.Sprintf("B%d", batch)}
	return strings.Join(parts, "-")
}

// MonthName returns the English month name for 1..12, or an empty string
// outside that range. Receipt rendering uses it.
func MonthName(month int) string {
	names := []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	if month < 1 || month > 12 {
		return ""
	}
	return names[month-1]
}

package models

import "testing"

func TestNormalizeRoute(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/api/v1/students/:id", "/api/v1/students/{}"},
		{"/api/v1/students/{id}", "/api/v1/students/{}"},
		{"/api/v1/courses/:id/topics", "/api/v1/courses/{}/topics"},
		{"/docs/*any", "/docs/{}"},
		{"/api/v1/halls/", "/api/v1/halls"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeRoute(tc.in); got != tc.want {
			t.Fatalf("NormalizeRoute(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package models

import "time"

// EventType enumerates the kinds of scheduled sessions.
type EventType string

const (
	EventTypeLecture   EventType = "LECTURE"
	EventTypeExam      EventType = "EXAM"
	EventTypePractical EventType = "PRACTICAL"
)

// EventStatus enumerates an event's lifecycle. New events start PENDING.
type EventStatus string

const (
	EventStatusPending   EventStatus = "PENDING"
	EventStatusConfirmed EventStatus = "CONFIRMED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// Event is a scheduled session for a course.
type Event struct {
	ID        string      `db:"id" json:"id"`
	CourseID  string      `db:"course_id" json:"course_id"`
	EventType EventType   `db:"event_type" json:"event_type"`
	Date      time.Time   `db:"date" json:"date"`
	StartTime string      `db:"start_time" json:"start_time"`
	EndTime   string      `db:"end_time" json:"end_time"`
	Status    EventStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// EventDetail resolves the course on read.
type EventDetail struct {
	Event
	Course CourseRef `db:"course" json:"course"`
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

var eventColumns = query.Columns{
	Searchable: map[string]string{
		"event_type": "ev.event_type",
		"status":     "ev.status",
		"course":     "c.name",
	},
	Sortable: map[string]string{
		"date":       "ev.date",
		"status":     "ev.status",
		"created_at": "ev.created_at",
	},
	DefaultSort: "ev.date",
}

const eventDetailSelect = `SELECT ev.id, ev.course_id, ev.event_type, ev.date, ev.start_time, ev.end_time, ev.status, ev.created_at, ev.updated_at,
        c.id AS "course.id", c.name AS "course.name", c.code AS "course.code", c.fee AS "course.fee"
        FROM events ev JOIN courses c ON c.id = ev.course_id`

// EventRepository manages persistence for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events with their course resolved.
func (r *EventRepository) List(ctx context.Context, params query.Params) ([]models.EventDetail, int, error) {
	clause := eventColumns.Build(params, 0)

	q := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		eventDetailSelect, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	events := []models.EventDetail{}
	if err := r.db.SelectContext(ctx, &events, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events ev JOIN courses c ON c.id = ev.course_id WHERE %s", clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID fetches an event with its course.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.EventDetail, error) {
	var detail models.EventDetail
	if err := r.db.GetContext(ctx, &detail, eventDetailSelect+" WHERE ev.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const q = `INSERT INTO events (id, course_id, event_type, date, start_time, end_time, status, created_at, updated_at)
        VALUES (:id, :course_id, :event_type, :date, :start_time, :end_time, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const q = `UPDATE events SET course_id = :course_id, event_type = :event_type, date = :date,
        start_time = :start_time, end_time = :end_time, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, q, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

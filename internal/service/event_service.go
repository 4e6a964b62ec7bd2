package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

type eventRepository interface {
	List(ctx context.Context, params query.Params) ([]models.EventDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EventDetail, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type eventCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

// CreateEventRequest holds the payload for scheduling an event. New events
// always start PENDING; the status field is only settable on update.
type CreateEventRequest struct {
	CourseID  string           `json:"course_id" validate:"required,uuid"`
	EventType models.EventType `json:"event_type" validate:"required,oneof=LECTURE EXAM PRACTICAL"`
	Date      time.Time        `json:"date" validate:"required"`
	StartTime string           `json:"start_time" validate:"required"`
	EndTime   string           `json:"end_time" validate:"required"`
}

// UpdateEventRequest holds the payload for rescheduling or transitioning
// an event.
type UpdateEventRequest struct {
	EventType models.EventType   `json:"event_type" validate:"required,oneof=LECTURE EXAM PRACTICAL"`
	Date      time.Time          `json:"date" validate:"required"`
	StartTime string             `json:"start_time" validate:"required"`
	EndTime   string             `json:"end_time" validate:"required"`
	Status    models.EventStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
}

// EventService handles event use-cases.
type EventService struct {
	repo      eventRepository
	courses   eventCourseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo eventRepository, courses eventCourseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

type eventPage struct {
	Events []models.EventDetail `json:"events"`
	Meta   *models.Paginator    `json:"meta"`
}

// List returns events and pagination metadata.
func (s *EventService) List(ctx context.Context, params query.Params) ([]models.EventDetail, *models.Paginator, error) {
	key := ListKey("events", params)
	var cached eventPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Events, cached.Meta, nil
	}

	events, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, eventPage{Events: events, Meta: meta}, 0)
	return events, meta, nil
}

// Get returns one event with its course resolved.
func (s *EventService) Get(ctx context.Context, id string) (*models.EventDetail, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create schedules a new event in PENDING status.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.EventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldError("course_id", "Course does not exist!")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	event := &models.Event{
		CourseID:  req.CourseID,
		EventType: req.EventType,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    models.EventStatusPending,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("events"))

	return &models.EventDetail{
		Event:  *event,
		Course: models.CourseRef{ID: course.ID, Name: course.Name, Code: course.Code, Fee: course.Fee},
	}, nil
}

// Update modifies an event's schedule or status.
func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest) (*models.EventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	detail.EventType = req.EventType
	detail.Date = req.Date
	detail.StartTime = req.StartTime
	detail.EndTime = req.EndTime
	detail.Status = req.Status
	if err := s.repo.Update(ctx, &detail.Event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("events"))
	return detail, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("events"))
	return nil
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service"
)

const eventCacheTTL = 10 * time.Minute

type EventInput struct {
	Title              string            `json:"title" validate:"required,max=255"`
	Slug               string            `json:"slug" validate:"max=255"`
	Theme              string            `json:"theme" validate:"max=255"`
	EventDate          time.Time         `json:"eventDate"`
	SubmissionDeadline time.Time         `json:"submissionDeadline"`
	Status             model.EventStatus `json:"status"`
}

// EventPatch holds the fields of an update; nil fields are left alone.
type EventPatch struct {
	Title              *string            `json:"title" validate:"omitempty,min=1,max=255"`
	Slug               *string            `json:"slug" validate:"omitempty,min=1,max=255"`
	Theme              *string            `json:"theme" validate:"omitempty,max=255"`
	EventDate          *time.Time         `json:"eventDate"`
	SubmissionDeadline *time.Time         `json:"submissionDeadline"`
	Status             *model.EventStatus `json:"status"`
}

// EventService owns spotlight event metadata and the submission window.
type EventService interface {
	ValidateWindow(deadline, eventDate time.Time) error
	IsSubmissionOpen(event *model.SpotlightEvent, now time.Time) bool
	AssertNoDependents(ctx context.Context, eventID uint) error

	CreateEvent(ctx context.Context, input EventInput) (*model.SpotlightEvent, error)
	UpdateEvent(ctx context.Context, id uint, patch EventPatch) (*model.SpotlightEvent, error)
	DeleteEvent(ctx context.Context, id uint) error
	GetEventByID(ctx context.Context, id uint) (*model.SpotlightEvent, error)
	GetEventBySlug(ctx context.Context, slug string) (*model.SpotlightEvent, error)
	ListEvents(ctx context.Context) ([]model.SpotlightEvent, error)
}

type eventService struct {
	db             *gorm.DB
	repo           repository.EventRepo
	submissionRepo repository.SubmissionRepo
	aside          *cache.Aside
	logger         *zap.Logger
}

var _ EventService = (*eventService)(nil)

func NewEventService(db *gorm.DB, eventRepo repository.EventRepo, submissionRepo repository.SubmissionRepo,
	aside *cache.Aside, logger *zap.Logger) *eventService {
	return &eventService{
		db:             db,
		repo:           eventRepo,
		submissionRepo: submissionRepo,
		aside:          aside,
		logger:         logger,
	}
}

func (s *eventService) ValidateWindow(deadline, eventDate time.Time) error {
	if !deadline.Before(eventDate) {
		return service.ErrInvalidWindow
	}
	return nil
}

// IsSubmissionOpen is true up to and including the deadline instant.
func (s *eventService) IsSubmissionOpen(event *model.SpotlightEvent, now time.Time) bool {
	return !now.After(event.SubmissionDeadline)
}

func (s *eventService) AssertNoDependents(ctx context.Context, eventID uint) error {
	return assertNoDependents(ctx, s.submissionRepo, eventID)
}

func assertNoDependents(ctx context.Context, repo repository.SubmissionRepo, eventID uint) error {
	n, err := repo.CountByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w (%d)", service.ErrHasDependents, n)
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, input EventInput) (*model.SpotlightEvent, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.EventDate.IsZero() || input.SubmissionDeadline.IsZero() {
		return nil, service.Invalid("title, event date, and submission deadline are required")
	}
	if err := s.ValidateWindow(input.SubmissionDeadline, input.EventDate); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.EventStatusUpcoming
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidStatus, status)
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = GenerateSlug(input.Title)
	}
	if slug == "" {
		return nil, service.Invalid("slug could not be derived from the title")
	}
	if err := s.ensureSlugFree(ctx, slug, 0); err != nil {
		return nil, err
	}

	event := &model.SpotlightEvent{
		Title:              input.Title,
		Slug:               slug,
		Theme:              optionalString(input.Theme),
		EventDate:          input.EventDate,
		SubmissionDeadline: input.SubmissionDeadline,
		Status:             status,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: an event with this slug already exists", service.ErrConflict)
		}
		return nil, err
	}
	s.logger.Info("spotlight event created", zap.Uint("event_id", event.ID), zap.String("slug", event.Slug))
	return event, nil
}

// UpdateEvent applies patch and re-checks the window against the merged
// values, so a patch touching only one of the two dates is still checked.
func (s *eventService) UpdateEvent(ctx context.Context, id uint, patch EventPatch) (*model.SpotlightEvent, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := event.Slug

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, service.Invalid("title cannot be empty")
		}
		event.Title = title
	}
	if patch.Slug != nil {
		slug := strings.TrimSpace(*patch.Slug)
		if slug == "" {
			return nil, service.Invalid("slug cannot be empty")
		}
		if slug != event.Slug {
			if err := s.ensureSlugFree(ctx, slug, event.ID); err != nil {
				return nil, err
			}
		}
		event.Slug = slug
	}
	if patch.Theme != nil {
		event.Theme = optionalString(*patch.Theme)
	}
	if patch.EventDate != nil {
		event.EventDate = *patch.EventDate
	}
	if patch.SubmissionDeadline != nil {
		event.SubmissionDeadline = *patch.SubmissionDeadline
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", service.ErrInvalidStatus, *patch.Status)
		}
		event.Status = *patch.Status
	}
	if err := s.ValidateWindow(event.SubmissionDeadline, event.EventDate); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: an event with this slug already exists", service.ErrConflict)
		}
		return nil, err
	}
	s.aside.Invalidate(ctx, cache.MakeEventBySlugKey(oldSlug), cache.MakeEventBySlugKey(event.Slug))
	return event, nil
}

// DeleteEvent refuses while any submission references the event. The
// count and the delete share one transaction, and the submissions foreign
// key rejects a delete that races a concurrent insert.
func (s *eventService) DeleteEvent(ctx context.Context, id uint) error {
	var slug string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := s.repo.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		slug = event.Slug
		if err := assertNoDependents(ctx, s.submissionRepo.WithTx(tx), id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return service.ErrNotFound
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return service.ErrHasDependents
		}
		return err
	}
	s.aside.Invalidate(ctx, cache.MakeEventBySlugKey(slug))
	s.logger.Info("spotlight event deleted", zap.Uint("event_id", id), zap.String("slug", slug))
	return nil
}

func (s *eventService) GetEventByID(ctx context.Context, id uint) (*model.SpotlightEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// GetEventBySlug is the public lookup and reads through the cache.
func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*model.SpotlightEvent, error) {
	event, err := cache.GetOrLoad(ctx, s.aside, cache.MakeEventBySlugKey(slug), eventCacheTTL,
		func(ctx context.Context) (model.SpotlightEvent, error) {
			event, err := s.repo.GetBySlug(ctx, slug)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.SpotlightEvent{}, service.ErrNotFound
				}
				return model.SpotlightEvent{}, err
			}
			return *event, nil
		})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]model.SpotlightEvent, error) {
	return s.repo.ListAll(ctx)
}

func (s *eventService) ensureSlugFree(ctx context.Context, slug string, excludeID uint) error {
	taken, err := s.repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: an event with this slug already exists", service.ErrConflict)
	}
	return nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

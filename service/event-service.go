package service

import (
	"errors"
	"strings"
	"time"

	"eventdesk/app_error"
	"eventdesk/repository"

	"gorm.io/gorm"
)

type EventService struct {
	eventRepository *repository.EventRepository
	auditService    *AuditService
	cache           *CacheInvalidator
}

func NewEventService(db *gorm.DB, auditService *AuditService, cacheInvalidator *CacheInvalidator) *EventService {
	return &EventService{
		eventRepository: repository.NewEventRepository(db),
		auditService:    auditService,
		cache:           cacheInvalidator,
	}
}

func (s *EventService) GetAllEvents() ([]*repository.Event, error) {
	return s.eventRepository.GetAllEvents()
}

func (s *EventService) GetEventById(eventId int) (*repository.Event, error) {
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &app_error.NotFoundError{Resource: "Event"}
		}
		return nil, err
	}
	return event, nil
}

func validateEvent(event *repository.Event) error {
	if strings.TrimSpace(event.Title) == "" {
		return app_error.NewValidationError("title", "title is required")
	}
	if len(event.Dates) == 0 {
		return app_error.NewValidationError("dates", "at least one date is required")
	}
	for _, d := range event.Dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return app_error.NewValidationError("dates", "dates must be formatted YYYY-MM-DD")
		}
	}
	if event.IsPaid && event.Amount < 0 {
		return app_error.NewValidationError("amount", "amount cannot be negative")
	}
	for _, category := range event.Categories {
		if strings.TrimSpace(category.Name) == "" {
			return app_error.NewValidationError("categories", "category names cannot be blank")
		}
		if category.Amount != nil && *category.Amount < 0 {
			return app_error.NewValidationError("categories", "category amounts cannot be negative")
		}
	}
	return nil
}

func (s *EventService) CreateEvent(user *repository.User, event *repository.Event) (*repository.Event, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	event.CreatedBy = user.Id
	created, err := s.eventRepository.Save(event)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateEvent(created.Id)
	s.auditService.Publish("event.created", created.Id, "", created.Title)
	return created, nil
}

// canManage: the creating admin or any superadmin.
func canManage(user *repository.User, event *repository.Event) bool {
	if user.HasPermission(repository.PermissionSuperAdmin) {
		return true
	}
	return event.CreatedBy == user.Id
}

func (s *EventService) UpdateEvent(user *repository.User, eventId int, update *repository.Event, categories []*repository.EventCategory) (*repository.Event, error) {
	event, err := s.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	if !canManage(user, event) {
		return nil, &app_error.ForbiddenError{}
	}
	if update.Title != "" {
		event.Title = update.Title
	}
	if len(update.Dates) > 0 {
		event.Dates = update.Dates
	}
	if update.TimeRange != nil {
		event.TimeRange = update.TimeRange
	}
	if update.Venue != "" {
		event.Venue = update.Venue
	}
	if update.Address != nil {
		event.Address = update.Address
	}
	event.IsPaid = update.IsPaid
	event.Amount = update.Amount
	event.SendPdf = update.SendPdf
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if categories != nil {
		if err := s.eventRepository.ReplaceCategories(event, categories); err != nil {
			return nil, err
		}
		event.Categories = categories
	}
	saved, err := s.eventRepository.Save(event)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateEvent(eventId)
	return saved, nil
}

// DeleteEvent moves the event to trash; its registrations stay untouched
// but become unreachable through the public surface until restore.
func (s *EventService) DeleteEvent(user *repository.User, eventId int) error {
	event, err := s.GetEventById(eventId)
	if err != nil {
		return err
	}
	if !canManage(user, event) {
		return &app_error.ForbiddenError{}
	}
	if err := s.eventRepository.SoftDelete(eventId); err != nil {
		return err
	}
	s.cache.InvalidateEvent(eventId)
	s.cache.InvalidateDashboard()
	s.auditService.Publish("event.deleted", eventId, "", event.Title)
	return nil
}

func (s *EventService) RestoreEvent(eventId int) error {
	if err := s.eventRepository.Restore(eventId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &app_error.NotFoundError{Resource: "Event"}
		}
		return err
	}
	s.cache.InvalidateEvent(eventId)
	s.auditService.Publish("event.restored", eventId, "", "")
	return nil
}

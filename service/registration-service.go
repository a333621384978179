package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"eventdesk/app_error"
	"eventdesk/metrics"
	"eventdesk/repository"

	"gorm.io/gorm"
)

// registration ids avoid 0/O, 1/I/L so they survive being read aloud or
// copied off a printed certificate
const registrationIdAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func GenerateRegistrationId(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = registrationIdAlphabet[rand.IntN(len(registrationIdAlphabet))]
	}
	return fmt.Sprintf("REG-%s-%s", now.Format("20060102"), string(suffix))
}

// RegistrationService is the admission controller: it decides whether a
// free-path registration attempt is rejected, deferred to the payment path,
// or durably recorded.
type RegistrationService struct {
	registrationRepository *repository.RegistrationRepository
	eventRepository        *repository.EventRepository
	schoolRepository       *repository.SchoolRepository
	notificationService    *NotificationService
	auditService           *AuditService
	cache                  *CacheInvalidator
}

func NewRegistrationService(db *gorm.DB, notificationService *NotificationService, auditService *AuditService, cacheInvalidator *CacheInvalidator) *RegistrationService {
	return &RegistrationService{
		registrationRepository: repository.NewRegistrationRepository(db),
		eventRepository:        repository.NewEventRepository(db),
		schoolRepository:       repository.NewSchoolRepository(db),
		notificationService:    notificationService,
		auditService:           auditService,
		cache:                  cacheInvalidator,
	}
}

// Admit handles the free path. The registration only counts as committed
// once the confirmation email went out: a mail failure deletes the
// just-written row and fails the call, so the registrant never ends up with
// a record they were never told about.
func (s *RegistrationService) Admit(ctx context.Context, eventId int, submission *Submission) (*repository.Registration, error) {
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		return nil, &app_error.NotFoundError{Resource: "Event"}
	}
	if err := submission.Validate(event); err != nil {
		metrics.RegistrationsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}
	if amount := event.ResolveAmount(submission.Category); amount > 0 {
		metrics.RegistrationsRejected.WithLabelValues("payment_required").Inc()
		return nil, app_error.NewValidationError("event", "this event requires payment, use the payment flow")
	}
	if err := s.checkDuplicate(eventId, submission); err != nil {
		return nil, err
	}

	s.ensureSchool(submission.School)

	registration := submission.toRegistration(GenerateRegistrationId(time.Now()), eventId)
	registration, err = s.registrationRepository.Create(registration)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			metrics.RegistrationsRejected.WithLabelValues("duplicate").Inc()
			return nil, &app_error.DuplicateError{Message: "You are already registered for this event"}
		}
		return nil, err
	}

	if err := s.notificationService.SendConfirmation(ctx, event, registration, true); err != nil {
		// compensate: a record without its confirmation is worse than
		// no record at all
		if deleteErr := s.registrationRepository.HardDelete(registration.Id); deleteErr != nil {
			log.Printf("failed to roll back registration %s: %v", registration.Id, deleteErr)
		}
		return nil, err
	}

	metrics.RegistrationsAdmitted.WithLabelValues("free").Inc()
	s.cache.InvalidateSchools()
	s.cache.InvalidateDashboard()
	s.cache.InvalidateEvent(eventId)
	s.auditService.Publish("registration.admitted", eventId, registration.Id, "free")
	return registration, nil
}

func (s *RegistrationService) checkDuplicate(eventId int, submission *Submission) error {
	_, err := s.registrationRepository.GetActiveByEventAndEmail(eventId, submission.NormalizedEmail())
	if err == nil {
		metrics.RegistrationsRejected.WithLabelValues("duplicate").Inc()
		return &app_error.DuplicateError{Message: "You are already registered for this event"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *RegistrationService) ensureSchool(name string) {
	if _, err := s.schoolRepository.Ensure(name); err != nil {
		// the school directory is autocomplete data, not a gate
		log.Printf("failed to ensure school %q: %v", name, err)
	}
}

// Verify is the public certificate lookup; trashed rows are invisible.
func (s *RegistrationService) Verify(registrationId string) (*repository.Registration, error) {
	registration, err := s.registrationRepository.GetById(registrationId)
	if err != nil {
		return nil, &app_error.NotFoundError{Resource: "Registration"}
	}
	return registration, nil
}

func (s *RegistrationService) GetForEvent(eventId int) ([]*repository.Registration, error) {
	return s.registrationRepository.GetForEvent(eventId)
}

type RegistrationUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	School   *string `json:"school"`
	Note     *string `json:"note"`
	Category *string `json:"category"`
	Position *int    `json:"position"`
}

// Update applies admin edits to contact fields, category and placement.
func (s *RegistrationService) Update(registrationId string, update *RegistrationUpdate) (*repository.Registration, error) {
	registration, err := s.registrationRepository.GetById(registrationId)
	if err != nil {
		return nil, &app_error.NotFoundError{Resource: "Registration"}
	}
	if update.Position != nil && (*update.Position < 1 || *update.Position > 20) {
		return nil, app_error.NewValidationError("position", "position must be between 1 and 20")
	}
	if update.Name != nil {
		registration.Name = *update.Name
	}
	if update.Email != nil {
		submission := &Submission{Email: *update.Email}
		if !emailRegex.MatchString(submission.NormalizedEmail()) {
			return nil, app_error.NewValidationError("email", "email address is not valid")
		}
		registration.Email = submission.NormalizedEmail()
	}
	if update.Phone != nil {
		registration.Phone = *update.Phone
	}
	if update.School != nil {
		registration.School = *update.School
		s.ensureSchool(*update.School)
	}
	if update.Note != nil {
		registration.Note = update.Note
	}
	if update.Category != nil {
		registration.Category = update.Category
	}
	if update.Position != nil {
		registration.Position = update.Position
	}
	registration, err = s.registrationRepository.Save(registration)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateDashboard()
	return registration, nil
}

// Remove soft-deletes a registration and sends a best-effort deletion
// notice.
func (s *RegistrationService) Remove(ctx context.Context, registrationId string) error {
	registration, err := s.registrationRepository.GetById(registrationId)
	if err != nil {
		return &app_error.NotFoundError{Resource: "Registration"}
	}
	if err := s.registrationRepository.SoftDelete(registrationId); err != nil {
		return err
	}
	if registration.Event != nil {
		s.notificationService.SendDeletionNotice(ctx, registration.Event, registration)
	}
	s.cache.InvalidateDashboard()
	s.cache.InvalidateEvent(registration.EventId)
	s.auditService.Publish("registration.deleted", registration.EventId, registrationId, "")
	return nil
}

func (s *RegistrationService) Restore(registrationId string) error {
	if err := s.registrationRepository.Restore(registrationId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &app_error.NotFoundError{Resource: "Registration"}
		}
		return err
	}
	s.cache.InvalidateDashboard()
	s.auditService.Publish("registration.restored", 0, registrationId, "")
	return nil
}

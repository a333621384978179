package service

import (
	"context"
	"log"
	"time"

	"eventdesk/repository"

	"gorm.io/gorm"
)

// ResultService publishes contest placements. A placement only becomes
// publicly visible once its awardee email went out: result_notified_at is
// both the "already mailed" marker and the visibility flag.
type ResultService struct {
	eventRepository        *repository.EventRepository
	registrationRepository *repository.RegistrationRepository
	notificationService    *NotificationService
	auditService           *AuditService
	cache                  *CacheInvalidator
}

func NewResultService(db *gorm.DB, notificationService *NotificationService, auditService *AuditService, cacheInvalidator *CacheInvalidator) *ResultService {
	return &ResultService{
		eventRepository:        repository.NewEventRepository(db),
		registrationRepository: repository.NewRegistrationRepository(db),
		notificationService:    notificationService,
		auditService:           auditService,
		cache:                  cacheInvalidator,
	}
}

type PublishResult struct {
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// PublishResults marks the event's results as published and notifies every
// positioned registrant that has not been mailed yet. Per-awardee failures
// are skipped so one bad address cannot block the rest; rerunning the
// operation picks up only the stragglers.
func (s *ResultService) PublishResults(ctx context.Context, eventId int) (*PublishResult, error) {
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	if event.ResultsPublishedAt == nil {
		now := time.Now()
		event.ResultsPublishedAt = &now
		if _, err := s.eventRepository.Save(event); err != nil {
			return nil, err
		}
	}

	awardees, err := s.registrationRepository.GetUnnotifiedAwardees(eventId)
	if err != nil {
		return nil, err
	}
	result := &PublishResult{}
	for _, awardee := range awardees {
		if err := s.notificationService.SendAwardNotice(ctx, event, awardee); err != nil {
			log.Printf("award notice for %s failed: %v", awardee.Id, err)
			result.Failed++
			continue
		}
		now := time.Now()
		awardee.ResultNotifiedAt = &now
		if _, err := s.registrationRepository.Save(awardee); err != nil {
			log.Printf("failed to mark %s notified: %v", awardee.Id, err)
			result.Failed++
			continue
		}
		result.Notified++
	}
	s.cache.InvalidateEvent(eventId)
	s.auditService.Publish("results.published", eventId, "", "")
	return result, nil
}

func (s *ResultService) GetPublishedResults(eventId int) ([]*repository.Registration, error) {
	return s.registrationRepository.GetPublishedResults(eventId)
}

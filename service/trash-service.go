package service

import (
	"fmt"
	"strconv"
	"time"

	"eventdesk/metrics"
	"eventdesk/repository"

	"gorm.io/gorm"
)

// TrashRetention is how long soft-deleted events and registrations stay
// restorable before the sweeper purges them for good.
const TrashRetention = 30 * 24 * time.Hour

type TrashService struct {
	eventRepository        *repository.EventRepository
	registrationRepository *repository.RegistrationRepository
	auditService           *AuditService
}

func NewTrashService(db *gorm.DB, auditService *AuditService) *TrashService {
	return &TrashService{
		eventRepository:        repository.NewEventRepository(db),
		registrationRepository: repository.NewRegistrationRepository(db),
		auditService:           auditService,
	}
}

type PurgeResult struct {
	EventsPurged        int `json:"events_purged"`
	RegistrationsPurged int `json:"registrations_purged"`
}

// PurgeExpired irreversibly deletes everything trashed longer than the
// retention window. Per-item failures are skipped, not fatal.
func (s *TrashService) PurgeExpired() (*PurgeResult, error) {
	cutoff := time.Now().Add(-TrashRetention)
	eventsPurged, err := s.eventRepository.PurgeExpired(cutoff)
	if err != nil {
		return nil, err
	}
	registrationsPurged, err := s.registrationRepository.PurgeExpired(cutoff)
	if err != nil {
		return nil, err
	}
	metrics.TrashPurged.WithLabelValues("event").Add(float64(eventsPurged))
	metrics.TrashPurged.WithLabelValues("registration").Add(float64(registrationsPurged))
	if eventsPurged > 0 || registrationsPurged > 0 {
		detail := fmt.Sprintf("purged %d events, %d registrations", eventsPurged, registrationsPurged)
		s.auditService.Publish("trash.purged", 0, "", detail)
	}
	return &PurgeResult{EventsPurged: eventsPurged, RegistrationsPurged: registrationsPurged}, nil
}

type TrashedItem struct {
	Kind          string    `json:"kind"`
	Id            string    `json:"id"`
	Label         string    `json:"label"`
	DeletedAt     time.Time `json:"deleted_at"`
	PurgeDeadline time.Time `json:"purge_deadline"`
}

// ListTrash returns everything restorable, oldest first, with its purge
// deadline.
func (s *TrashService) ListTrash() ([]*TrashedItem, error) {
	events, err := s.eventRepository.GetTrashed()
	if err != nil {
		return nil, err
	}
	registrations, err := s.registrationRepository.GetTrashed()
	if err != nil {
		return nil, err
	}
	items := make([]*TrashedItem, 0, len(events)+len(registrations))
	for _, event := range events {
		items = append(items, &TrashedItem{
			Kind:          "event",
			Id:            strconv.Itoa(event.Id),
			Label:         event.Title,
			DeletedAt:     event.DeletedAt.Time,
			PurgeDeadline: event.DeletedAt.Time.Add(TrashRetention),
		})
	}
	for _, registration := range registrations {
		items = append(items, &TrashedItem{
			Kind:          "registration",
			Id:            registration.Id,
			Label:         registration.Name,
			DeletedAt:     registration.DeletedAt.Time,
			PurgeDeadline: registration.DeletedAt.Time.Add(TrashRetention),
		})
	}
	return items, nil
}

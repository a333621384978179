package service

import (
	"sync"

	"eventdesk/repository"

	"gorm.io/gorm"
)

type DashboardService struct {
	eventRepository        *repository.EventRepository
	registrationRepository *repository.RegistrationRepository
	schoolRepository       *repository.SchoolRepository
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		eventRepository:        repository.NewEventRepository(db),
		registrationRepository: repository.NewRegistrationRepository(db),
		schoolRepository:       repository.NewSchoolRepository(db),
	}
}

type EventStats struct {
	Event         *repository.Event `json:"event"`
	Registrations int64             `json:"registrations"`
}

type DashboardStats struct {
	Events             []*EventStats `json:"events"`
	TotalRegistrations int64         `json:"total_registrations"`
	TotalSchools       int           `json:"total_schools"`
}

// GetStats aggregates the admin dashboard view. The three reads are
// independent, so they fan out.
func (s *DashboardService) GetStats() (*DashboardStats, error) {
	var (
		events  []*repository.Event
		counts  map[int]int64
		schools []*repository.School
		wg      sync.WaitGroup
		errs    [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		events, errs[0] = s.eventRepository.GetAllEvents()
	}()
	go func() {
		defer wg.Done()
		counts, errs[1] = s.registrationRepository.CountByEvent()
	}()
	go func() {
		defer wg.Done()
		schools, errs[2] = s.schoolRepository.GetAll()
	}()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	stats := &DashboardStats{
		Events:       make([]*EventStats, 0, len(events)),
		TotalSchools: len(schools),
	}
	for _, event := range events {
		count := counts[event.Id]
		stats.Events = append(stats.Events, &EventStats{Event: event, Registrations: count})
		stats.TotalRegistrations += count
	}
	return stats, nil
}

func (s *DashboardService) CountForEvent(eventId int) (int64, error) {
	return s.registrationRepository.CountForEvent(eventId)
}

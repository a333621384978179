package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Event struct {
	Id                 int            `gorm:"primaryKey"`
	Title              string         `gorm:"not null"`
	Dates              pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	TimeRange          *string        `gorm:"null"`
	Venue              string         `gorm:"not null"`
	Address            *string        `gorm:"null"`
	IsPaid             bool           `gorm:"not null;default:false"`
	Amount             float64        `gorm:"not null;default:0"`
	SendPdf            bool           `gorm:"not null;default:true"`
	ResultsPublishedAt *time.Time     `gorm:"null"`
	CreatedBy          int            `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`

	Categories []*EventCategory `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
}

type EventCategory struct {
	Id      int      `gorm:"primaryKey"`
	EventId int      `gorm:"not null;index"`
	Name    string   `gorm:"not null"`
	Amount  *float64 `gorm:"null"`
}

func (e *Event) CategoryNames() []string {
	names := make([]string, 0, len(e.Categories))
	for _, category := range e.Categories {
		names = append(names, category.Name)
	}
	return names
}

// ResolveAmount returns the fee a registrant owes for the given category:
// the category's own amount when the category is listed with one, the flat
// amount otherwise. A result of zero (or less) means the free path applies
// even on a paid event.
func (e *Event) ResolveAmount(category string) float64 {
	if !e.IsPaid {
		return 0
	}
	for _, c := range e.Categories {
		if c.Name == category && c.Amount != nil {
			return *c.Amount
		}
	}
	return e.Amount
}

// FormatDates renders the event's schedule for emails and certificates.
// Two dates read as a span, three or more as a listed set.
func (e *Event) FormatDates() string {
	parsed := make([]time.Time, 0, len(e.Dates))
	for _, d := range e.Dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		parsed = append(parsed, t)
	}
	switch len(parsed) {
	case 0:
		return ""
	case 1:
		return parsed[0].Format("2 January 2006")
	case 2:
		if parsed[0].Year() == parsed[1].Year() {
			return fmt.Sprintf("%s to %s", parsed[0].Format("2 January"), parsed[1].Format("2 January 2006"))
		}
		return fmt.Sprintf("%s to %s", parsed[0].Format("2 January 2006"), parsed[1].Format("2 January 2006"))
	default:
		days := make([]string, 0, len(parsed))
		for i, t := range parsed {
			days = append(days, fmt.Sprintf("Day %d: %s", i+1, t.Format("2 January 2006")))
		}
		return strings.Join(days, ", ")
	}
}

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) GetEventById(eventId int) (*Event, error) {
	var event Event
	result := r.DB.Preload("Categories").First(&event, eventId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &event, nil
}

func (r *EventRepository) GetAllEvents() ([]*Event, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetAllEvents"))
	defer timer.ObserveDuration()
	events := make([]*Event, 0)
	result := r.DB.Preload("Categories").Order("created_at DESC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

func (r *EventRepository) Save(event *Event) (*Event, error) {
	result := r.DB.Save(event)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save event: %v", result.Error)
	}
	return event, nil
}

// ReplaceCategories swaps the event's category list atomically with the
// event update itself.
func (r *EventRepository) ReplaceCategories(event *Event, categories []*EventCategory) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.Id).Delete(&EventCategory{}).Error; err != nil {
			return err
		}
		for _, category := range categories {
			category.EventId = event.Id
			if err := tx.Create(category).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EventRepository) SoftDelete(eventId int) error {
	result := r.DB.Delete(&Event{}, eventId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EventRepository) Restore(eventId int) error {
	result := r.DB.Unscoped().Model(&Event{}).
		Where("id = ? AND deleted_at IS NOT NULL", eventId).
		Update("deleted_at", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EventRepository) GetTrashed() ([]*Event, error) {
	events := make([]*Event, 0)
	result := r.DB.Unscoped().Where("deleted_at IS NOT NULL").
		Order("deleted_at ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// PurgeExpired hard-deletes events trashed before the cutoff, one by one so
// a single failure does not block the rest.
func (r *EventRepository) PurgeExpired(cutoff time.Time) (int, error) {
	events := make([]*Event, 0)
	result := r.DB.Unscoped().Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).Find(&events)
	if result.Error != nil {
		return 0, result.Error
	}
	purged := 0
	for _, event := range events {
		if err := r.DB.Unscoped().Delete(event).Error; err != nil {
			fmt.Printf("failed to purge event %d: %v\n", event.Id, err)
			continue
		}
		purged++
	}
	return purged, nil
}

package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
)

// Registration is keyed by the human-readable registration id printed on
// certificates. Email is stored normalized (trimmed, lowercased); the
// partial unique index on (event_id, email) WHERE deleted_at IS NULL is the
// hard guarantee behind the one-live-registration rule.
type Registration struct {
	Id               string         `gorm:"primaryKey"`
	EventId          int            `gorm:"not null;index"`
	Name             string         `gorm:"not null"`
	Email            string         `gorm:"not null"`
	Phone            string         `gorm:"not null"`
	School           string         `gorm:"not null"`
	Note             *string        `gorm:"null"`
	Category         *string        `gorm:"null"`
	Position         *int           `gorm:"null"`
	PaymentStatus    *PaymentStatus `gorm:"type:eventdesk.payment_status;null"`
	TransactionId    *string        `gorm:"null"`
	ResultNotifiedAt *time.Time     `gorm:"null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`

	Event *Event `gorm:"foreignKey:EventId;references:Id;constraint:OnDelete:CASCADE"`
}

// ErrDuplicateRegistration is returned when the partial unique index rejects
// a second live registration for the same (event, email).
var ErrDuplicateRegistration = fmt.Errorf("registration already exists for this event and email")

type RegistrationRepository struct {
	DB *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{DB: db}
}

func (r *RegistrationRepository) Create(registration *Registration) (*Registration, error) {
	result := r.DB.Create(registration)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "uniq_live_registration") ||
			strings.Contains(result.Error.Error(), "duplicate key") {
			return nil, ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("failed to create registration: %v", result.Error)
	}
	return registration, nil
}

func (r *RegistrationRepository) Save(registration *Registration) (*Registration, error) {
	result := r.DB.Save(registration)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save registration: %v", result.Error)
	}
	return registration, nil
}

func (r *RegistrationRepository) GetById(registrationId string) (*Registration, error) {
	var registration Registration
	result := r.DB.Preload("Event").First(&registration, "id = ?", registrationId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &registration, nil
}

// GetActiveByEventAndEmail performs the duplicate point lookup; the default
// gorm scope already filters soft-deleted rows.
func (r *RegistrationRepository) GetActiveByEventAndEmail(eventId int, email string) (*Registration, error) {
	var registration Registration
	result := r.DB.First(&registration, "event_id = ? AND email = ?", eventId, email)
	if result.Error != nil {
		return nil, result.Error
	}
	return &registration, nil
}

func (r *RegistrationRepository) GetForEvent(eventId int) ([]*Registration, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetRegistrationsForEvent"))
	defer timer.ObserveDuration()
	registrations := make([]*Registration, 0)
	result := r.DB.Order("created_at ASC").Find(&registrations, "event_id = ?", eventId)
	if result.Error != nil {
		return nil, result.Error
	}
	return registrations, nil
}

func (r *RegistrationRepository) CountByEvent() (map[int]int64, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("CountRegistrationsByEvent"))
	defer timer.ObserveDuration()
	type eventCount struct {
		EventId int
		Count   int64
	}
	counts := make([]eventCount, 0)
	result := r.DB.Model(&Registration{}).
		Select("event_id, count(*) as count").
		Group("event_id").
		Scan(&counts)
	if result.Error != nil {
		return nil, result.Error
	}
	countMap := make(map[int]int64, len(counts))
	for _, c := range counts {
		countMap[c.EventId] = c.Count
	}
	return countMap, nil
}

func (r *RegistrationRepository) CountForEvent(eventId int) (int64, error) {
	var count int64
	result := r.DB.Model(&Registration{}).Where("event_id = ?", eventId).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// GetPublishedResults returns placements visible on the public results page:
// positioned, notified, not trashed.
func (r *RegistrationRepository) GetPublishedResults(eventId int) ([]*Registration, error) {
	registrations := make([]*Registration, 0)
	result := r.DB.
		Where("event_id = ? AND position IS NOT NULL AND result_notified_at IS NOT NULL", eventId).
		Order("position ASC").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}
	return registrations, nil
}

func (r *RegistrationRepository) GetUnnotifiedAwardees(eventId int) ([]*Registration, error) {
	registrations := make([]*Registration, 0)
	result := r.DB.
		Where("event_id = ? AND position IS NOT NULL AND result_notified_at IS NULL", eventId).
		Order("position ASC").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}
	return registrations, nil
}

func (r *RegistrationRepository) SoftDelete(registrationId string) error {
	result := r.DB.Delete(&Registration{}, "id = ?", registrationId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HardDelete removes the row immediately. Used by the free-path
// compensation when the confirmation email cannot be sent, and by the trash
// sweeper.
func (r *RegistrationRepository) HardDelete(registrationId string) error {
	result := r.DB.Unscoped().Delete(&Registration{}, "id = ?", registrationId)
	return result.Error
}

func (r *RegistrationRepository) Restore(registrationId string) error {
	result := r.DB.Unscoped().Model(&Registration{}).
		Where("id = ? AND deleted_at IS NOT NULL", registrationId).
		Update("deleted_at", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RegistrationRepository) GetTrashed() ([]*Registration, error) {
	registrations := make([]*Registration, 0)
	result := r.DB.Unscoped().Where("deleted_at IS NOT NULL").
		Order("deleted_at ASC").Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}
	return registrations, nil
}

func (r *RegistrationRepository) PurgeExpired(cutoff time.Time) (int, error) {
	registrations := make([]*Registration, 0)
	result := r.DB.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&registrations)
	if result.Error != nil {
		return 0, result.Error
	}
	purged := 0
	for _, registration := range registrations {
		if err := r.DB.Unscoped().Delete(registration).Error; err != nil {
			fmt.Printf("failed to purge registration %s: %v\n", registration.Id, err)
			continue
		}
		purged++
	}
	return purged, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"eventdesk/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func backdateEventDeletion(t *testing.T, eventId int, age time.Duration) {
	t.Helper()
	err := db.Unscoped().Model(&repository.Event{}).
		Where("id = ?", eventId).
		Update("deleted_at", time.Now().Add(-age)).Error
	assert.Nil(t, err)
}

func TestPurgeExpiredHonorsRetention(t *testing.T) {
	service := NewTrashService(db, &AuditService{})

	expired := createTestEvent(t, &repository.Event{
		Title:     "Old Seminar",
		Dates:     pq.StringArray{"2026-01-10"},
		Venue:     "Room 1",
		SendPdf:   true,
		CreatedBy: 1,
	})
	recent := createTestEvent(t, &repository.Event{
		Title:     "Recent Seminar",
		Dates:     pq.StringArray{"2026-02-10"},
		Venue:     "Room 2",
		SendPdf:   true,
		CreatedBy: 1,
	})
	assert.Nil(t, db.Delete(&repository.Event{}, expired.Id).Error)
	assert.Nil(t, db.Delete(&repository.Event{}, recent.Id).Error)
	backdateEventDeletion(t, expired.Id, TrashRetention+24*time.Hour)
	backdateEventDeletion(t, recent.Id, TrashRetention-24*time.Hour)

	_, err := service.PurgeExpired()
	assert.Nil(t, err)

	var count int64
	assert.Nil(t, db.Unscoped().Model(&repository.Event{}).Where("id = ?", expired.Id).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Nil(t, db.Unscoped().Model(&repository.Event{}).Where("id = ?", recent.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPurgeExpiredRemovesOldRegistrations(t *testing.T) {
	service := NewTrashService(db, &AuditService{})
	registrationService := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Archived Workshop")

	registration, err := registrationService.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)
	assert.Nil(t, registrationService.Remove(context.Background(), registration.Id))

	err = db.Unscoped().Model(&repository.Registration{}).
		Where("id = ?", registration.Id).
		Update("deleted_at", time.Now().Add(-TrashRetention-time.Hour)).Error
	assert.Nil(t, err)

	result, err := service.PurgeExpired()
	assert.Nil(t, err)
	assert.GreaterOrEqual(t, result.RegistrationsPurged, 1)

	var count int64
	assert.Nil(t, db.Unscoped().Model(&repository.Registration{}).Where("id = ?", registration.Id).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestListTrashReportsPurgeDeadlines(t *testing.T) {
	service := NewTrashService(db, &AuditService{})
	registrationService := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Retired Meetup")

	registration, err := registrationService.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)
	assert.Nil(t, registrationService.Remove(context.Background(), registration.Id))

	items, err := service.ListTrash()
	assert.Nil(t, err)

	var found *TrashedItem
	for _, item := range items {
		if item.Kind == "registration" && item.Id == registration.Id {
			found = item
		}
	}
	assert.NotNil(t, found)
	assert.Equal(t, registration.Name, found.Label)
	assert.Equal(t, found.DeletedAt.Add(TrashRetention), found.PurgeDeadline)
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eventdesk/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func newResultService(mail *fakeMail) *ResultService {
	return NewResultService(db, NewNotificationService(mail, &fakePdf{}), &AuditService{}, NewCacheInvalidator(nil))
}

func seedAwardee(t *testing.T, eventId int, email string, position *int) *repository.Registration {
	t.Helper()
	registration := &repository.Registration{
		Id:       GenerateRegistrationId(time.Now()),
		EventId:  eventId,
		Name:     "Awardee " + email,
		Email:    email,
		Phone:    "01712345678",
		School:   "City College",
		Position: position,
	}
	assert.Nil(t, db.Create(registration).Error)
	return registration
}

func TestPublishResultsNotifiesAwardeesOnce(t *testing.T) {
	mail := &fakeMail{}
	service := newResultService(mail)
	event := createTestEvent(t, &repository.Event{
		Title:     "Essay Contest",
		Dates:     pq.StringArray{"2026-12-01"},
		Venue:     "Library",
		SendPdf:   true,
		CreatedBy: 1,
	})
	first, second := 1, 2
	winner := seedAwardee(t, event.Id, "winner@example.com", &first)
	runnerUp := seedAwardee(t, event.Id, "runnerup@example.com", &second)
	seedAwardee(t, event.Id, "participant@example.com", nil)

	result, err := service.PublishResults(context.Background(), event.Id)
	assert.Nil(t, err)
	assert.Equal(t, 2, result.Notified)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, mail.sent, 2)

	var updated repository.Event
	assert.Nil(t, db.First(&updated, event.Id).Error)
	assert.NotNil(t, updated.ResultsPublishedAt)

	published, err := service.GetPublishedResults(event.Id)
	assert.Nil(t, err)
	assert.Len(t, published, 2)
	assert.Equal(t, winner.Id, published[0].Id)
	assert.Equal(t, runnerUp.Id, published[1].Id)

	// a rerun finds nobody left to notify
	rerun, err := service.PublishResults(context.Background(), event.Id)
	assert.Nil(t, err)
	assert.Equal(t, 0, rerun.Notified)
	assert.Len(t, mail.sent, 2)
}

func TestPublishResultsRetriesOnlyStragglers(t *testing.T) {
	mail := &fakeMail{err: fmt.Errorf("mail api is down")}
	service := newResultService(mail)
	event := createTestEvent(t, &repository.Event{
		Title:     "Photo Contest",
		Dates:     pq.StringArray{"2026-12-05"},
		Venue:     "Gallery",
		SendPdf:   true,
		CreatedBy: 1,
	})
	first := 1
	seedAwardee(t, event.Id, "photographer@example.com", &first)

	// a failed notice keeps the placement unpublished
	result, err := service.PublishResults(context.Background(), event.Id)
	assert.Nil(t, err)
	assert.Equal(t, 0, result.Notified)
	assert.Equal(t, 1, result.Failed)

	published, err := service.GetPublishedResults(event.Id)
	assert.Nil(t, err)
	assert.Len(t, published, 0)

	mail.err = nil
	result, err = service.PublishResults(context.Background(), event.Id)
	assert.Nil(t, err)
	assert.Equal(t, 1, result.Notified)

	published, err = service.GetPublishedResults(event.Id)
	assert.Nil(t, err)
	assert.Len(t, published, 1)
	assert.NotNil(t, published[0].ResultNotifiedAt)
}

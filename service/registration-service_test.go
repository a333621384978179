package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"eventdesk/app_error"
	"eventdesk/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestGenerateRegistrationId(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	id := GenerateRegistrationId(now)
	assert.True(t, strings.HasPrefix(id, "REG-20260314-"))
	assert.Len(t, id, len("REG-20260314-")+5)
	for _, c := range id[len(id)-5:] {
		assert.Contains(t, registrationIdAlphabet, string(c))
	}
}

func newRegistrationService(mail *fakeMail) *RegistrationService {
	return NewRegistrationService(db, NewNotificationService(mail, &fakePdf{}), &AuditService{}, NewCacheInvalidator(nil))
}

func freeEvent(t *testing.T, title string) *repository.Event {
	t.Helper()
	return createTestEvent(t, &repository.Event{
		Title:     title,
		Dates:     pq.StringArray{"2026-09-01"},
		Venue:     "Main Hall",
		SendPdf:   true,
		CreatedBy: 1,
	})
}

func TestFreeAdmission(t *testing.T) {
	mail := &fakeMail{}
	service := newRegistrationService(mail)
	event := freeEvent(t, "Science Fair")

	submission := validSubmission()
	submission.Email = " Ayesha@Example.com "
	registration, err := service.Admit(context.Background(), event.Id, submission)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(registration.Id, "REG-"))
	assert.Equal(t, "ayesha@example.com", registration.Email)
	assert.Nil(t, registration.PaymentStatus)

	// confirmation went out with the certificate attached
	assert.Len(t, mail.sent, 1)
	assert.Equal(t, "ayesha@example.com", mail.sent[0].to)
	assert.NotNil(t, mail.sent[0].attachment)
	assert.Equal(t, registration.Id+".pdf", mail.sent[0].attachment.Filename)

	assert.Equal(t, int64(1), countRegistrations(t, event.Id))

	// the school directory picked up the submitted school
	var school repository.School
	assert.Nil(t, db.First(&school, "name = ?", "City College").Error)
}

func TestAdmitRejectsDuplicate(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Quiz Night")

	_, err := service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)

	// same email, different casing and padding
	submission := validSubmission()
	submission.Email = " AYESHA@example.com"
	_, err = service.Admit(context.Background(), event.Id, submission)
	var duplicateErr *app_error.DuplicateError
	assert.ErrorAs(t, err, &duplicateErr)
	assert.Equal(t, int64(1), countRegistrations(t, event.Id))
}

func TestAdmitDefersPaidEventsToPaymentFlow(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	event := createTestEvent(t, &repository.Event{
		Title:     "Robotics Workshop",
		Dates:     pq.StringArray{"2026-10-05"},
		Venue:     "Lab 3",
		IsPaid:    true,
		Amount:    500,
		SendPdf:   true,
		CreatedBy: 1,
	})

	_, err := service.Admit(context.Background(), event.Id, validSubmission())
	var validationErr *app_error.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int64(0), countRegistrations(t, event.Id))
}

func TestAdmitAllowsFreeCategoryOnPaidEvent(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	freeAmount := 0.0
	event := createTestEvent(t, &repository.Event{
		Title:     "Talent Show",
		Dates:     pq.StringArray{"2026-10-12"},
		Venue:     "Auditorium",
		IsPaid:    true,
		Amount:    300,
		SendPdf:   true,
		CreatedBy: 1,
		Categories: []*repository.EventCategory{
			{Name: "Performer"},
			{Name: "Audience", Amount: &freeAmount},
		},
	})

	submission := validSubmission()
	submission.Category = "Audience"
	registration, err := service.Admit(context.Background(), event.Id, submission)
	assert.Nil(t, err)
	assert.Equal(t, "Audience", *registration.Category)
}

func TestAdmitRollsBackWhenConfirmationFails(t *testing.T) {
	mail := &fakeMail{err: fmt.Errorf("mail api is down")}
	service := newRegistrationService(mail)
	event := freeEvent(t, "Debate Club")

	_, err := service.Admit(context.Background(), event.Id, validSubmission())
	var upstreamErr *app_error.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)

	// the compensating delete removed the row entirely, so the
	// registrant can retry
	assert.Equal(t, int64(0), countRegistrations(t, event.Id))

	mail.err = nil
	_, err = service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)
}

func TestReAdmissionAfterRemoval(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Chess Open")

	first, err := service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)

	assert.Nil(t, service.Remove(context.Background(), first.Id))

	// the partial index only guards live rows, so the same email can
	// register again after removal
	second, err := service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)
	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, int64(2), countRegistrations(t, event.Id))
}

func TestRestoreConflictsWithLiveRegistration(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Poetry Slam")

	first, err := service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)
	assert.Nil(t, service.Remove(context.Background(), first.Id))

	_, err = service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)

	// the index rejects resurrecting the old row next to the new one
	assert.NotNil(t, service.Restore(first.Id))
}

func TestVerifyHidesTrashedRegistrations(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Math Olympiad")

	registration, err := service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)

	verified, err := service.Verify(registration.Id)
	assert.Nil(t, err)
	assert.Equal(t, registration.Id, verified.Id)
	assert.NotNil(t, verified.Event)
	assert.Equal(t, "Math Olympiad", verified.Event.Title)

	assert.Nil(t, service.Remove(context.Background(), registration.Id))
	_, err = service.Verify(registration.Id)
	var notFoundErr *app_error.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateValidatesPositionAndEmail(t *testing.T) {
	service := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Spelling Bee")

	registration, err := service.Admit(context.Background(), event.Id, validSubmission())
	assert.Nil(t, err)

	badPosition := 21
	_, err = service.Update(registration.Id, &RegistrationUpdate{Position: &badPosition})
	assert.NotNil(t, err)

	badEmail := "not-an-email"
	_, err = service.Update(registration.Id, &RegistrationUpdate{Email: &badEmail})
	assert.NotNil(t, err)

	position := 2
	newEmail := " Winner@Example.com "
	updated, err := service.Update(registration.Id, &RegistrationUpdate{Position: &position, Email: &newEmail})
	assert.Nil(t, err)
	assert.Equal(t, 2, *updated.Position)
	assert.Equal(t, "winner@example.com", updated.Email)
}

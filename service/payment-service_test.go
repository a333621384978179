package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"eventdesk/app_error"
	"eventdesk/client"
	"eventdesk/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestBuildAndParseInvoiceRef(t *testing.T) {
	ref, err := BuildInvoiceRef(42, "a1B2c3D4")
	assert.Nil(t, err)
	assert.Equal(t, "EVD-42-a1B2c3D4", ref)

	eventId, err := ParseInvoiceRef(ref)
	assert.Nil(t, err)
	assert.Equal(t, 42, eventId)
}

func TestBuildInvoiceRefRejectsBadClientIds(t *testing.T) {
	for _, clientId := range []string{"", "abc", "has-dash1", "with space", strings.Repeat("a", 65)} {
		_, err := BuildInvoiceRef(1, clientId)
		assert.NotNil(t, err, clientId)
	}
}

func TestParseInvoiceRefRejectsForeignRefs(t *testing.T) {
	for _, ref := range []string{"", "EVD-42", "XYZ-42-abcd", "EVD-0-abcd", "EVD-x-abcd", "EVD-42-ab-cd"} {
		_, err := ParseInvoiceRef(ref)
		assert.NotNil(t, err, ref)
	}
}

func paidEvent(t *testing.T, title string, amount float64) *repository.Event {
	t.Helper()
	return createTestEvent(t, &repository.Event{
		Title:     title,
		Dates:     pq.StringArray{"2026-11-01"},
		Venue:     "Convention Center",
		IsPaid:    true,
		Amount:    amount,
		SendPdf:   true,
		CreatedBy: 1,
	})
}

func newPaymentService(gateway *fakeGateway, mail *fakeMail) *PaymentService {
	return NewPaymentService(db, gateway, NewNotificationService(mail, &fakePdf{}), &AuditService{}, NewCacheInvalidator(nil))
}

func TestInitiatePaymentOpensSessionWithoutPersisting(t *testing.T) {
	gateway := &fakeGateway{
		create: &client.CreatePaymentResponse{PaymentID: "TR0001", RedirectURL: "https://gateway.example/pay/TR0001"},
	}
	service := newPaymentService(gateway, &fakeMail{})
	event := paidEvent(t, "Coding Contest", 500)

	session, err := service.InitiatePayment(context.Background(), event.Id, "checkout1", validSubmission())
	assert.Nil(t, err)
	assert.Equal(t, "TR0001", session.PaymentId)
	assert.Equal(t, "https://gateway.example/pay/TR0001", session.RedirectUrl)

	// nothing is written until the payment executes
	assert.Equal(t, int64(0), countRegistrations(t, event.Id))
}

func TestInitiatePaymentRejectsFreeEventAndFreeCategory(t *testing.T) {
	gateway := &fakeGateway{}
	service := newPaymentService(gateway, &fakeMail{})

	free := createTestEvent(t, &repository.Event{
		Title:     "Open House",
		Dates:     pq.StringArray{"2026-11-02"},
		Venue:     "Campus",
		SendPdf:   true,
		CreatedBy: 1,
	})
	_, err := service.InitiatePayment(context.Background(), free.Id, "checkout2", validSubmission())
	var validationErr *app_error.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	freeAmount := 0.0
	mixed := createTestEvent(t, &repository.Event{
		Title:     "Science Expo",
		Dates:     pq.StringArray{"2026-11-03"},
		Venue:     "Hall B",
		IsPaid:    true,
		Amount:    400,
		SendPdf:   true,
		CreatedBy: 1,
		Categories: []*repository.EventCategory{
			{Name: "Exhibitor"},
			{Name: "Visitor", Amount: &freeAmount},
		},
	})
	submission := validSubmission()
	submission.Category = "Visitor"
	_, err = service.InitiatePayment(context.Background(), mixed.Id, "checkout3", submission)
	assert.ErrorAs(t, err, &validationErr)
}

func completedExecution(event *repository.Event, clientId string) *client.ExecutePaymentResponse {
	return &client.ExecutePaymentResponse{
		PaymentID:             "TR0002",
		TrxID:                 "9HX3KQM1",
		TransactionStatus:     "Completed",
		MerchantInvoiceNumber: fmt.Sprintf("EVD-%d-%s", event.Id, clientId),
	}
}

func TestReconcileAdmitsExactlyOnce(t *testing.T) {
	mail := &fakeMail{}
	event := paidEvent(t, "Hackathon", 1000)
	gateway := &fakeGateway{execute: completedExecution(event, "checkout4")}
	service := newPaymentService(gateway, mail)

	result, err := service.Reconcile(context.Background(), "TR0002", validSubmission())
	assert.Nil(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, event.Id, result.EventId)

	var registration repository.Registration
	assert.Nil(t, db.First(&registration, "id = ?", result.RegistrationId).Error)
	assert.Equal(t, repository.PaymentCompleted, *registration.PaymentStatus)
	assert.Equal(t, "9HX3KQM1", *registration.TransactionId)
	assert.Len(t, mail.sent, 1)

	// a replayed callback returns the prior admission without writing
	// or mailing again
	replay, err := service.Reconcile(context.Background(), "TR0002", validSubmission())
	assert.Nil(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, result.RegistrationId, replay.RegistrationId)
	assert.Equal(t, int64(1), countRegistrations(t, event.Id))
	assert.Len(t, mail.sent, 1)
}

func TestReconcileSurfacesGatewayDecline(t *testing.T) {
	event := paidEvent(t, "Robo Race", 750)
	gateway := &fakeGateway{
		execute: &client.ExecutePaymentResponse{
			TransactionStatus:     "Failed",
			StatusMessage:         "Insufficient balance",
			MerchantInvoiceNumber: fmt.Sprintf("EVD-%d-checkout5", event.Id),
		},
	}
	service := newPaymentService(gateway, &fakeMail{})

	_, err := service.Reconcile(context.Background(), "TR0003", validSubmission())
	var declinedErr *app_error.PaymentDeclinedError
	assert.ErrorAs(t, err, &declinedErr)
	assert.Contains(t, declinedErr.Error(), "Insufficient balance")
	assert.Equal(t, int64(0), countRegistrations(t, event.Id))
}

func TestReconcileKeepsRegistrationWhenMailFails(t *testing.T) {
	mail := &fakeMail{err: fmt.Errorf("mail api is down")}
	event := paidEvent(t, "Esports Cup", 900)
	gateway := &fakeGateway{execute: completedExecution(event, "checkout6")}
	service := newPaymentService(gateway, mail)

	// money has moved; a notification failure must never unwind the row
	result, err := service.Reconcile(context.Background(), "TR0004", validSubmission())
	assert.Nil(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, int64(1), countRegistrations(t, event.Id))
}

func TestReconcileRejectsMissingPaymentId(t *testing.T) {
	service := newPaymentService(&fakeGateway{}, &fakeMail{})
	_, err := service.Reconcile(context.Background(), "  ", validSubmission())
	var validationErr *app_error.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestReconcileResolvesCategoryAmount(t *testing.T) {
	artAmount := 100.0
	event := createTestEvent(t, &repository.Event{
		Title:     "Art & Music Fest",
		Dates:     pq.StringArray{"2026-11-20"},
		Venue:     "Gallery",
		IsPaid:    true,
		Amount:    500,
		SendPdf:   true,
		CreatedBy: 1,
		Categories: []*repository.EventCategory{
			{Name: "Art", Amount: &artAmount},
			{Name: "Sculpture"},
		},
	})
	gateway := &fakeGateway{
		create:  &client.CreatePaymentResponse{PaymentID: "TR0005", RedirectURL: "https://gateway.example/pay/TR0005"},
		execute: completedExecution(event, "checkout7"),
	}
	service := newPaymentService(gateway, &fakeMail{})

	// a listed category with its own fee initiates at that fee
	submission := validSubmission()
	submission.Category = "Art"
	_, err := service.InitiatePayment(context.Background(), event.Id, "checkout7", submission)
	assert.Nil(t, err)

	result, err := service.Reconcile(context.Background(), "TR0005", submission)
	assert.Nil(t, err)

	var registration repository.Registration
	assert.Nil(t, db.First(&registration, "id = ?", result.RegistrationId).Error)
	assert.Equal(t, "Art", *registration.Category)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"eventdesk/app_error"
	"eventdesk/client"
	"eventdesk/metrics"
	"eventdesk/repository"

	"gorm.io/gorm"
)

// invoicePrefix brands the merchant invoice number; the invoice is the only
// carrier of the event id across the gateway round-trip.
const invoicePrefix = "EVD"

// the gateway rejects invoice numbers with exotic characters, and the
// client-generated id doubles as a parse delimiter boundary
var clientIdPattern = regexp.MustCompile(`^[A-Za-z0-9]{4,64}$`)

func BuildInvoiceRef(eventId int, clientGeneratedId string) (string, error) {
	if !clientIdPattern.MatchString(clientGeneratedId) {
		return "", app_error.NewValidationError("clientId", "client id must be 4-64 alphanumeric characters")
	}
	return fmt.Sprintf("%s-%d-%s", invoicePrefix, eventId, clientGeneratedId), nil
}

// ParseInvoiceRef recovers the event id from a gateway-echoed invoice
// number.
func ParseInvoiceRef(invoiceRef string) (int, error) {
	parts := strings.Split(invoiceRef, "-")
	if len(parts) != 3 || parts[0] != invoicePrefix {
		return 0, fmt.Errorf("invoice reference %q does not match %s-<event>-<client>", invoiceRef, invoicePrefix)
	}
	eventId, err := strconv.Atoi(parts[1])
	if err != nil || eventId <= 0 {
		return 0, fmt.Errorf("invoice reference %q carries no event id", invoiceRef)
	}
	return eventId, nil
}

// PaymentGateway is satisfied by client.PaymentClient; tests swap in a fake.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, amount float64, invoiceRef string, payerRef string) (*client.CreatePaymentResponse, error)
	ExecutePayment(ctx context.Context, paymentId string) (*client.ExecutePaymentResponse, error)
}

type PaymentSession struct {
	PaymentId   string `json:"payment_id"`
	RedirectUrl string `json:"redirect_url"`
}

// PaymentService owns the paid registration flow: initiation hands the
// registrant to the gateway without persisting anything; reconciliation
// turns the gateway callback into exactly one admitted registration.
type PaymentService struct {
	registrationRepository *repository.RegistrationRepository
	eventRepository        *repository.EventRepository
	schoolRepository       *repository.SchoolRepository
	notificationService    *NotificationService
	auditService           *AuditService
	gateway                PaymentGateway
	cache                  *CacheInvalidator
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, notificationService *NotificationService, auditService *AuditService, cacheInvalidator *CacheInvalidator) *PaymentService {
	return &PaymentService{
		registrationRepository: repository.NewRegistrationRepository(db),
		eventRepository:        repository.NewEventRepository(db),
		schoolRepository:       repository.NewSchoolRepository(db),
		notificationService:    notificationService,
		auditService:           auditService,
		gateway:                gateway,
		cache:                  cacheInvalidator,
	}
}

// InitiatePayment validates the submission, resolves the fee and opens a
// gateway checkout session. Deliberately stateless on our side: no row and
// no intent record is written, the browser carries the form data to the
// callback.
func (s *PaymentService) InitiatePayment(ctx context.Context, eventId int, clientGeneratedId string, submission *Submission) (*PaymentSession, error) {
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		return nil, &app_error.NotFoundError{Resource: "Event"}
	}
	if err := submission.Validate(event); err != nil {
		metrics.RegistrationsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}
	if !event.IsPaid {
		return nil, app_error.NewValidationError("event", "this event is free, use the regular registration")
	}
	amount := event.ResolveAmount(submission.Category)
	if amount <= 0 {
		return nil, app_error.NewValidationError("category", "this category is free, use the regular registration")
	}
	if err := s.checkDuplicate(eventId, submission); err != nil {
		return nil, err
	}

	invoiceRef, err := BuildInvoiceRef(eventId, clientGeneratedId)
	if err != nil {
		return nil, err
	}
	session, err := s.gateway.CreatePayment(ctx, amount, invoiceRef, submission.Phone)
	if err != nil {
		return nil, &app_error.UpstreamError{Service: "payment gateway", Err: err}
	}
	metrics.PaymentsInitiated.Inc()
	return &PaymentSession{PaymentId: session.PaymentID, RedirectUrl: session.RedirectURL}, nil
}

type ReconcileResult struct {
	RegistrationId string `json:"registration_id"`
	EventId        int    `json:"event_id"`
	Replayed       bool   `json:"-"`
}

// Reconcile executes the payment at the gateway and performs the single
// admitting write. Replayed callbacks (refresh, popup races, gateway
// redelivery) return the prior registration id without writing or mailing
// anything. Once the gateway has captured money, a failed notification is
// logged, never rolled back.
func (s *PaymentService) Reconcile(ctx context.Context, paymentId string, submission *Submission) (*ReconcileResult, error) {
	if strings.TrimSpace(paymentId) == "" {
		return nil, app_error.NewValidationError("paymentId", "payment id is required")
	}
	if err := submission.validateFields(); err != nil {
		return nil, err
	}

	execution, err := s.gateway.ExecutePayment(ctx, paymentId)
	if err != nil {
		return nil, &app_error.UpstreamError{Service: "payment gateway", Err: err}
	}
	if !execution.Completed() {
		metrics.PaymentsFailed.Inc()
		return nil, &app_error.PaymentDeclinedError{Detail: execution.ErrorDetail()}
	}

	eventId, err := ParseInvoiceRef(execution.MerchantInvoiceNumber)
	if err != nil {
		return nil, app_error.NewValidationError("invoice", err.Error())
	}
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		return nil, &app_error.NotFoundError{Resource: "Event"}
	}

	// idempotent replay: the first successful callback already admitted
	// this registrant
	existing, err := s.registrationRepository.GetActiveByEventAndEmail(eventId, submission.NormalizedEmail())
	if err == nil {
		metrics.PaymentReplays.Inc()
		return &ReconcileResult{RegistrationId: existing.Id, EventId: eventId, Replayed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s.ensureSchool(submission.School)

	registration := submission.toRegistration(GenerateRegistrationId(time.Now()), eventId)
	status := repository.PaymentCompleted
	registration.PaymentStatus = &status
	trxId := execution.TrxID
	registration.TransactionId = &trxId
	registration, err = s.registrationRepository.Create(registration)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			// lost a race against a concurrent replay; the winner's
			// row is the answer
			if winner, lookupErr := s.registrationRepository.GetActiveByEventAndEmail(eventId, submission.NormalizedEmail()); lookupErr == nil {
				metrics.PaymentReplays.Inc()
				return &ReconcileResult{RegistrationId: winner.Id, EventId: eventId, Replayed: true}, nil
			}
		}
		return nil, err
	}

	if err := s.notificationService.SendConfirmation(ctx, event, registration, false); err != nil {
		log.Printf("paid-path confirmation for %s failed: %v", registration.Id, err)
	}

	metrics.RegistrationsAdmitted.WithLabelValues("paid").Inc()
	s.cache.InvalidateSchools()
	s.cache.InvalidateDashboard()
	s.cache.InvalidateEvent(eventId)
	s.auditService.Publish("registration.admitted", eventId, registration.Id, "paid trx "+trxId)
	return &ReconcileResult{RegistrationId: registration.Id, EventId: eventId}, nil
}

func (s *PaymentService) checkDuplicate(eventId int, submission *Submission) error {
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

func (s *PaymentService) ensureSchool(name string) {
	if _, err := s.schoolRepository.Ensure(name); err != nil {
		log.Printf("failed to ensure school %q: %v", name, err)
	}
}

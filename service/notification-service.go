package service

import (
	"context"
	"fmt"
	"log"

	"eventdesk/app_error"
	"eventdesk/client"
	"eventdesk/metrics"
	"eventdesk/repository"
)

// MailSender and CertificateRenderer are satisfied by the HTTP clients in
// the client package; tests swap in fakes.
type MailSender interface {
	Send(ctx context.Context, to string, subject string, html string, attachment *client.Attachment) error
}

type CertificateRenderer interface {
	Render(ctx context.Context, data *client.CertificateData) ([]byte, error)
}

type NotificationService struct {
	mail MailSender
	pdf  CertificateRenderer
}

func NewNotificationService(mail MailSender, pdf CertificateRenderer) *NotificationService {
	return &NotificationService{mail: mail, pdf: pdf}
}

// SendConfirmation emails the registrant their registration id, attaching
// the rendered certificate when the event wants one. With strict set, any
// failure (render or send) is returned so the caller can compensate; without
// it, failures are logged and swallowed - the paid path must never lose a
// registration over a notification.
func (s *NotificationService) SendConfirmation(ctx context.Context, event *repository.Event, registration *repository.Registration, strict bool) error {
	var attachment *client.Attachment
	if event.SendPdf {
		pdfBytes, err := s.pdf.Render(ctx, &client.CertificateData{
			Template:       "registration",
			RegistrationId: registration.Id,
			Name:           registration.Name,
			School:         registration.School,
			EventTitle:     event.Title,
			EventDates:     event.FormatDates(),
			Category:       stringValue(registration.Category),
		})
		if err != nil {
			if strict {
				return &app_error.UpstreamError{Service: "pdf renderer", Err: err}
			}
			log.Printf("confirmation pdf for %s failed, sending without attachment: %v", registration.Id, err)
		} else {
			metrics.CertificatesRendered.Inc()
			attachment = &client.Attachment{
				Filename: registration.Id + ".pdf",
				Content:  pdfBytes,
			}
		}
	}

	subject := fmt.Sprintf("Registration confirmed: %s", event.Title)
	html := confirmationBody(event, registration)
	if err := s.mail.Send(ctx, registration.Email, subject, html, attachment); err != nil {
		metrics.EmailsFailed.WithLabelValues("confirmation").Inc()
		if strict {
			return &app_error.UpstreamError{Service: "mail api", Err: err}
		}
		log.Printf("confirmation email for %s failed: %v", registration.Id, err)
		return nil
	}
	metrics.EmailsSent.WithLabelValues("confirmation").Inc()
	return nil
}

// SendAwardNotice tells an awardee their placement is published.
func (s *NotificationService) SendAwardNotice(ctx context.Context, event *repository.Event, registration *repository.Registration) error {
	if registration.Position == nil {
		return fmt.Errorf("registration %s has no position", registration.Id)
	}
	subject := fmt.Sprintf("Results published: %s", event.Title)
	html := fmt.Sprintf(
		`<p>Dear %s,</p>
		<p>Congratulations! You placed <b>#%d</b>%s at <b>%s</b>.</p>
		<p>Your result is now visible on the public results page. Your registration id is %s.</p>`,
		registration.Name, *registration.Position, categorySuffix(registration.Category), event.Title, registration.Id)
	if err := s.mail.Send(ctx, registration.Email, subject, html, nil); err != nil {
		metrics.EmailsFailed.WithLabelValues("award").Inc()
		return err
	}
	metrics.EmailsSent.WithLabelValues("award").Inc()
	return nil
}

// SendDeletionNotice is best effort; removal succeeds regardless.
func (s *NotificationService) SendDeletionNotice(ctx context.Context, event *repository.Event, registration *repository.Registration) {
	subject := fmt.Sprintf("Registration removed: %s", event.Title)
	html := fmt.Sprintf(
		`<p>Dear %s,</p>
		<p>Your registration %s for <b>%s</b> has been removed by an administrator.
		If you believe this is a mistake, please contact support.</p>`,
		registration.Name, registration.Id, event.Title)
	if err := s.mail.Send(ctx, registration.Email, subject, html, nil); err != nil {
		metrics.EmailsFailed.WithLabelValues("deletion").Inc()
		log.Printf("deletion notice for %s failed: %v", registration.Id, err)
		return
	}
	metrics.EmailsSent.WithLabelValues("deletion").Inc()
}

func confirmationBody(event *repository.Event, registration *repository.Registration) string {
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
		<p>Your registration for <b>%s</b> is confirmed.</p>
		<p>Registration id: <b>%s</b></p>`,
		registration.Name, event.Title, registration.Id)
	if dates := event.FormatDates(); dates != "" {
		body += fmt.Sprintf("<p>When: %s", dates)
		if event.TimeRange != nil {
			body += ", " + *event.TimeRange
		}
		body += "</p>"
	}
	if event.Venue != "" {
		body += fmt.Sprintf("<p>Where: %s</p>", event.Venue)
	}
	if registration.PaymentStatus != nil && *registration.PaymentStatus == repository.PaymentCompleted {
		body += fmt.Sprintf("<p>Payment received. Transaction id: %s</p>", stringValue(registration.TransactionId))
	}
	return body
}

func categorySuffix(category *string) string {
	if category == nil {
		return ""
	}
	return fmt.Sprintf(" in %s", *category)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RegistrationsAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventdesk_registrations_admitted_total",
	Help: "Number of registrations admitted, by path (free or paid)",
}, []string{"path"})

var RegistrationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventdesk_registrations_rejected_total",
	Help: "Number of registration attempts rejected, by reason",
}, []string{"reason"})

var PaymentsInitiated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventdesk_payments_initiated_total",
	Help: "Number of payment sessions created at the gateway",
})

var PaymentsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventdesk_payments_failed_total",
	Help: "Number of payments the gateway reported as not completed",
})

var PaymentReplays = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventdesk_payment_replays_total",
	Help: "Number of gateway callbacks detected as replays of an already admitted registration",
})

var EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventdesk_emails_sent_total",
	Help: "Number of emails handed to the mail API, by kind",
}, []string{"kind"})

var EmailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventdesk_emails_failed_total",
	Help: "Number of email sends that failed, by kind",
}, []string{"kind"})

var CertificatesRendered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventdesk_certificates_rendered_total",
	Help: "Number of PDF certificates rendered",
})

var TrashPurged = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventdesk_trash_purged_total",
	Help: "Number of records permanently purged from trash, by kind",
}, []string{"kind"})

var GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "eventdesk_gateway_request_duration_seconds",
	Help: "Duration of requests to the payment gateway",
}, []string{"endpoint"})

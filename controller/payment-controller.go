package controller

import (
	"strconv"

	"eventdesk/app_error"
	"eventdesk/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentController struct {
	paymentService *service.PaymentService
}

func NewPaymentController(db *gorm.DB, gateway service.PaymentGateway, notificationService *service.NotificationService, auditService *service.AuditService, cacheInvalidator *service.CacheInvalidator) *PaymentController {
	return &PaymentController{
		paymentService: service.NewPaymentService(db, gateway, notificationService, auditService, cacheInvalidator),
	}
}

func setupPaymentController(db *gorm.DB, gateway service.PaymentGateway, notificationService *service.NotificationService, auditService *service.AuditService, cacheInvalidator *service.CacheInvalidator) []RouteInfo {
	e := NewPaymentController(db, gateway, notificationService, auditService, cacheInvalidator)
	basePath := "/payments"
	routes := []RouteInfo{
		{Method: "POST", Path: "/create", HandlerFunc: e.createPaymentHandler(), Authenticated: true},
		{Method: "POST", Path: "/execute", HandlerFunc: e.executePaymentHandler(), Authenticated: true},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type PaymentCreate struct {
	EventId    int                 `json:"event_id" binding:"required"`
	ClientId   string              `json:"client_id" binding:"required"`
	Submission *service.Submission `json:"submission" binding:"required"`
}

// @Description Opens a gateway checkout session for a paid event. Nothing is
// persisted until the gateway reports the payment executed; the caller must
// hold on to the submission and replay it on the callback.
// @Tags payment
// @Accept json
// @Produce json
// @Param payment body PaymentCreate true "Event, client correlation id and registrant data"
// @Success 200 {object} service.PaymentSession
// @Security BearerAuth
// @Router /payments/create [post]
func (e *PaymentController) createPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var create PaymentCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		session, err := e.paymentService.InitiatePayment(c.Request.Context(), create.EventId, create.ClientId, create.Submission)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, session)
	}
}

type PaymentExecute struct {
	PaymentId  string              `json:"payment_id" binding:"required"`
	Submission *service.Submission `json:"submission" binding:"required"`
}

// @Description Executes a gateway payment and admits the registration
// exactly once. Replayed callbacks return the already admitted registration.
// @Tags payment
// @Accept json
// @Produce json
// @Param payment body PaymentExecute true "Gateway payment id and the registrant data from initiation"
// @Success 201 {object} service.ReconcileResult
// @Security BearerAuth
// @Router /payments/execute [post]
func (e *PaymentController) executePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var execute PaymentExecute
		if err := c.BindJSON(&execute); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		result, err := e.paymentService.Reconcile(c.Request.Context(), execute.PaymentId, execute.Submission)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		status := 201
		if result.Replayed {
			status = 200
		}
		c.Header("Location", "/events/"+strconv.Itoa(result.EventId))
		c.JSON(status, result)
	}
}

package controller

import (
	"strconv"
	"time"

	"eventdesk/app_error"
	"eventdesk/repository"
	"eventdesk/service"
	"eventdesk/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegistrationController struct {
	registrationService *service.RegistrationService
	resultService       *service.ResultService
	userService         *service.UserService
}

func NewRegistrationController(db *gorm.DB, notificationService *service.NotificationService, auditService *service.AuditService, cacheInvalidator *service.CacheInvalidator) *RegistrationController {
	return &RegistrationController{
		registrationService: service.NewRegistrationService(db, notificationService, auditService, cacheInvalidator),
		resultService:       service.NewResultService(db, notificationService, auditService, cacheInvalidator),
		userService:         service.NewUserService(db),
	}
}

func setupRegistrationController(db *gorm.DB, notificationService *service.NotificationService, auditService *service.AuditService, cacheInvalidator *service.CacheInvalidator) []RouteInfo {
	e := NewRegistrationController(db, notificationService, auditService, cacheInvalidator)
	return []RouteInfo{
		{Method: "POST", Path: "/events/:event_id/register", HandlerFunc: e.registerHandler(), Authenticated: true},
		{Method: "GET", Path: "/events/:event_id/registrations", HandlerFunc: e.getEventRegistrationsHandler(), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "GET", Path: "/events/:event_id/results", HandlerFunc: e.getResultsHandler()},
		{Method: "POST", Path: "/events/:event_id/results/publish", HandlerFunc: e.publishResultsHandler(), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "PATCH", Path: "/registrations/:registration_id", HandlerFunc: e.updateRegistrationHandler(), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "DELETE", Path: "/registrations/:registration_id", HandlerFunc: e.deleteRegistrationHandler(), Authenticated: true, RequiredRoles: []string{"superadmin"}},
		{Method: "POST", Path: "/registrations/:registration_id/restore", HandlerFunc: e.restoreRegistrationHandler(), Authenticated: true, RequiredRoles: []string{"superadmin"}},
		{Method: "GET", Path: "/verify/:registration_id", HandlerFunc: e.verifyHandler()},
	}
}

// @Description Registers for a free event. Paid events must go through the payment flow.
// @Tags registration
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param submission body service.Submission true "Registrant data"
// @Success 201 {object} RegistrationResponse
// @Security BearerAuth
// @Router /events/{event_id}/register [post]
func (e *RegistrationController) registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var submission service.Submission
		if err := c.BindJSON(&submission); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		registration, err := e.registrationService.Admit(c.Request.Context(), eventId, &submission)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(201, toRegistrationResponse(registration))
	}
}

// @Description Lists registrations for an event
// @Tags registration
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} RegistrationResponse
// @Security BearerAuth
// @Router /events/{event_id}/registrations [get]
func (e *RegistrationController) getEventRegistrationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		registrations, err := e.registrationService.GetForEvent(eventId)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, utils.Map(registrations, toRegistrationResponse))
	}
}

// @Description Public results for an event; placements appear once their awardee was notified
// @Tags registration
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} ResultResponse
// @Router /events/{event_id}/results [get]
func (e *RegistrationController) getResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		results, err := e.resultService.GetPublishedResults(eventId)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, utils.Map(results, toResultResponse))
	}
}

// @Description Publishes results and emails awardees that were not notified yet
// @Tags registration
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} service.PublishResult
// @Security BearerAuth
// @Router /events/{event_id}/results/publish [post]
func (e *RegistrationController) publishResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		result, err := e.resultService.PublishResults(c.Request.Context(), eventId)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// @Description Updates a registration's contact fields, category or position
// @Tags registration
// @Accept json
// @Produce json
// @Param registration_id path string true "Registration Id"
// @Param update body service.RegistrationUpdate true "Fields to update"
// @Success 200 {object} RegistrationResponse
// @Security BearerAuth
// @Router /registrations/{registration_id} [patch]
func (e *RegistrationController) updateRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update service.RegistrationUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		registration, err := e.registrationService.Update(c.Param("registration_id"), &update)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, toRegistrationResponse(registration))
	}
}

// @Description Moves a registration to trash and notifies the registrant
// @Tags registration
// @Param registration_id path string true "Registration Id"
// @Success 204
// @Security BearerAuth
// @Router /registrations/{registration_id} [delete]
func (e *RegistrationController) deleteRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := e.registrationService.Remove(c.Request.Context(), c.Param("registration_id")); err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @Description Restores a registration from trash
// @Tags registration
// @Param registration_id path string true "Registration Id"
// @Success 200
// @Security BearerAuth
// @Router /registrations/{registration_id}/restore [post]
func (e *RegistrationController) restoreRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := e.registrationService.Restore(c.Param("registration_id")); err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, gin.H{})
	}
}

// @Description Public certificate verification by registration id
// @Tags registration
// @Produce json
// @Param registration_id path string true "Registration Id"
// @Success 200 {object} VerificationResponse
// @Router /verify/{registration_id} [get]
func (e *RegistrationController) verifyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		registration, err := e.registrationService.Verify(c.Param("registration_id"))
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, toVerificationResponse(registration))
	}
}

type RegistrationResponse struct {
	Id            string     `json:"id"`
	EventId       int        `json:"event_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	School        string     `json:"school"`
	Note          *string    `json:"note,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Position      *int       `json:"position,omitempty"`
	PaymentStatus *string    `json:"payment_status,omitempty"`
	TransactionId *string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	NotifiedAt    *time.Time `json:"result_notified_at,omitempty"`
}

func toRegistrationResponse(registration *repository.Registration) *RegistrationResponse {
	if registration == nil {
		return nil
	}
	response := &RegistrationResponse{
		Id:            registration.Id,
		EventId:       registration.EventId,
		Name:          registration.Name,
		Email:         registration.Email,
		Phone:         registration.Phone,
		School:        registration.School,
		Note:          registration.Note,
		Category:      registration.Category,
		Position:      registration.Position,
		TransactionId: registration.TransactionId,
		CreatedAt:     registration.CreatedAt,
		NotifiedAt:    registration.ResultNotifiedAt,
	}
	if registration.PaymentStatus != nil {
		status := string(*registration.PaymentStatus)
		response.PaymentStatus = &status
	}
	return response
}

// VerificationResponse exposes only what a certificate holder needs
// checked, not the registrant's contact details.
type VerificationResponse struct {
	Id         string  `json:"id"`
	Name       string  `json:"name"`
	School     string  `json:"school"`
	EventTitle string  `json:"event_title,omitempty"`
	Category   *string `json:"category,omitempty"`
	Position   *int    `json:"position,omitempty"`
}

func toVerificationResponse(registration *repository.Registration) *VerificationResponse {
	response := &VerificationResponse{
		Id:       registration.Id,
		Name:     registration.Name,
		School:   registration.School,
		Category: registration.Category,
	}
	if registration.Event != nil {
		response.EventTitle = registration.Event.Title
	}
	// placements stay hidden until the awardee was notified
	if registration.Position != nil && registration.ResultNotifiedAt != nil {
		response.Position = registration.Position
	}
	return response
}

type ResultResponse struct {
	Position int     `json:"position"`
	Name     string  `json:"name"`
	School   string  `json:"school"`
	Category *string `json:"category,omitempty"`
}

func toResultResponse(registration *repository.Registration) *ResultResponse {
	response := &ResultResponse{
		Name:     registration.Name,
		School:   registration.School,
		Category: registration.Category,
	}
	if registration.Position != nil {
		response.Position = *registration.Position
	}
	return response
}

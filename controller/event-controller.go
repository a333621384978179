package controller

import (
	"strconv"
	"time"

	"eventdesk/app_error"
	"eventdesk/repository"
	"eventdesk/service"
	"eventdesk/utils"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EventController struct {
	eventService *service.EventService
	userService  *service.UserService
}

func NewEventController(db *gorm.DB, auditService *service.AuditService, cacheInvalidator *service.CacheInvalidator) *EventController {
	return &EventController{
		eventService: service.NewEventService(db, auditService, cacheInvalidator),
		userService:  service.NewUserService(db),
	}
}

func setupEventController(db *gorm.DB, cacheStore persistence.CacheStore, auditService *service.AuditService, cacheInvalidator *service.CacheInvalidator) []RouteInfo {
	e := NewEventController(db, auditService, cacheInvalidator)
	basePath := "/events"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: cache.CachePage(cacheStore, time.Minute, e.getEventsHandler())},
		{Method: "POST", Path: "", HandlerFunc: e.createEventHandler(), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "GET", Path: "/:event_id", HandlerFunc: e.getEventHandler()},
		{Method: "PATCH", Path: "/:event_id", HandlerFunc: e.updateEventHandler(), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "DELETE", Path: "/:event_id", HandlerFunc: e.deleteEventHandler(), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "POST", Path: "/:event_id/restore", HandlerFunc: e.restoreEventHandler(), Authenticated: true, RequiredRoles: []string{"superadmin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Fetches all events
// @Tags event
// @Produce json
// @Success 200 {array} EventResponse
// @Router /events [get]
func (e *EventController) getEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := e.eventService.GetAllEvents()
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, utils.Map(events, toEventResponse))
	}
}

// @Description Gets an event by id
// @Tags event
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [get]
func (e *EventController) getEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.GetEventById(eventId)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @Description Creates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event body EventCreate true "Event to create"
// @Success 201 {object} EventResponse
// @Security BearerAuth
// @Router /events [post]
func (e *EventController) createEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		var eventCreate EventCreate
		if err := c.BindJSON(&eventCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.CreateEvent(user, eventCreate.toModel())
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(201, toEventResponse(event))
	}
}

// @Description Updates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param event body EventUpdate true "Fields to update"
// @Success 200 {object} EventResponse
// @Security BearerAuth
// @Router /events/{event_id} [patch]
func (e *EventController) updateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		var update EventUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.UpdateEvent(user, eventId, update.toModel(), update.toCategories())
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @Description Moves an event to trash
// @Tags event
// @Param event_id path int true "Event Id"
// @Success 204
// @Security BearerAuth
// @Router /events/{event_id} [delete]
func (e *EventController) deleteEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		if err := e.eventService.DeleteEvent(user, eventId); err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @Description Restores an event from trash
// @Tags event
// @Param event_id path int true "Event Id"
// @Success 200
// @Security BearerAuth
// @Router /events/{event_id}/restore [post]
func (e *EventController) restoreEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.eventService.RestoreEvent(eventId); err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, gin.H{})
	}
}

type CategoryCreate struct {
	Name   string   `json:"name" binding:"required"`
	Amount *float64 `json:"amount"`
}

type EventCreate struct {
	Title      string           `json:"title" binding:"required"`
	Dates      []string         `json:"dates" binding:"required"`
	TimeRange  *string          `json:"time_range"`
	Venue      string           `json:"venue" binding:"required"`
	Address    *string          `json:"address"`
	IsPaid     bool             `json:"is_paid"`
	Amount     float64          `json:"amount"`
	SendPdf    *bool            `json:"send_pdf"`
	Categories []CategoryCreate `json:"categories"`
}

func (e *EventCreate) toModel() *repository.Event {
	event := &repository.Event{
		Title:     e.Title,
		Dates:     e.Dates,
		TimeRange: e.TimeRange,
		Venue:     e.Venue,
		Address:   e.Address,
		IsPaid:    e.IsPaid,
		Amount:    e.Amount,
		SendPdf:   true,
	}
	if e.SendPdf != nil {
		event.SendPdf = *e.SendPdf
	}
	for _, category := range e.Categories {
		event.Categories = append(event.Categories, &repository.EventCategory{
			Name:   category.Name,
			Amount: category.Amount,
		})
	}
	return event
}

type EventUpdate struct {
	Title      string            `json:"title"`
	Dates      []string          `json:"dates"`
	TimeRange  *string           `json:"time_range"`
	Venue      string            `json:"venue"`
	Address    *string           `json:"address"`
	IsPaid     bool              `json:"is_paid"`
	Amount     float64           `json:"amount"`
	SendPdf    bool              `json:"send_pdf"`
	Categories *[]CategoryCreate `json:"categories"`
}

func (e *EventUpdate) toModel() *repository.Event {
	return &repository.Event{
		Title:     e.Title,
		Dates:     e.Dates,
		TimeRange: e.TimeRange,
		Venue:     e.Venue,
		Address:   e.Address,
		IsPaid:    e.IsPaid,
		Amount:    e.Amount,
		SendPdf:   e.SendPdf,
	}
}

func (e *EventUpdate) toCategories() []*repository.EventCategory {
	if e.Categories == nil {
		return nil
	}
	categories := make([]*repository.EventCategory, 0, len(*e.Categories))
	for _, category := range *e.Categories {
		categories = append(categories, &repository.EventCategory{
			Name:   category.Name,
			Amount: category.Amount,
		})
	}
	return categories
}

type CategoryResponse struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount,omitempty"`
}

type EventResponse struct {
	Id                 int                `json:"id"`
	Title              string             `json:"title"`
	Dates              []string           `json:"dates"`
	DatesDisplay       string             `json:"dates_display"`
	TimeRange          *string            `json:"time_range,omitempty"`
	Venue              string             `json:"venue"`
	Address            *string            `json:"address,omitempty"`
	IsPaid             bool               `json:"is_paid"`
	Amount             float64            `json:"amount"`
	SendPdf            bool               `json:"send_pdf"`
	ResultsPublishedAt *time.Time         `json:"results_published_at,omitempty"`
	Categories         []CategoryResponse `json:"categories,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

func toEventResponse(event *repository.Event) *EventResponse {
	if event == nil {
		return nil
	}
	response := &EventResponse{
		Id:                 event.Id,
		Title:              event.Title,
		Dates:              event.Dates,
		DatesDisplay:       event.FormatDates(),
		TimeRange:          event.TimeRange,
		Venue:              event.Venue,
		Address:            event.Address,
		IsPaid:             event.IsPaid,
		Amount:             event.Amount,
		SendPdf:            event.SendPdf,
		ResultsPublishedAt: event.ResultsPublishedAt,
		CreatedAt:          event.CreatedAt,
	}
	for _, category := range event.Categories {
		response.Categories = append(response.Categories, CategoryResponse{
			Name:   category.Name,
			Amount: category.Amount,
		})
	}
	return response
}

package controller

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"eventdesk/app_error"
	"eventdesk/repository"
	"eventdesk/service"
	"eventdesk/utils"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type DashboardController struct {
	dashboardService *service.DashboardService
	userService      *service.UserService
	mu               sync.Mutex
	connections      map[int]map[*websocket.Conn]bool
	lastCounts       map[int]int64
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	controller := &DashboardController{
		dashboardService: service.NewDashboardService(db),
		userService:      service.NewUserService(db),
		connections:      make(map[int]map[*websocket.Conn]bool),
		lastCounts:       make(map[int]int64),
	}
	controller.StartFeedUpdater()
	return controller
}

func setupDashboardController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewDashboardController(db)
	return []RouteInfo{
		{Method: "GET", Path: "/admin/dashboard", HandlerFunc: cache.CachePage(cacheStore, time.Minute, e.getDashboardHandler()), Authenticated: true, RequiredRoles: []string{"admin", "superadmin"}},
		{Method: "GET", Path: "/events/:event_id/registrations/ws", HandlerFunc: e.FeedWebSocketHandler},
	}
}

// @Description Admin dashboard aggregates: per-event registration counts, totals, school count
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.DashboardStats
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (e *DashboardController) getDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := e.dashboardService.GetStats()
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, stats)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// the browser websocket API cannot set an Authorization header,
		// so the dashboard connects cross-origin with a token query param
		return true
	},
}

type FeedUpdate struct {
	EventId       int   `json:"event_id"`
	Registrations int64 `json:"registrations"`
}

// @id RegistrationFeed
// @Description Websocket pushing the event's registration count whenever it changes. Admin only; pass the token as a query parameter.
// @Tags dashboard
// @Param event_id path int true "Event Id"
// @Param token query string true "Bearer token"
// @Success 200 {object} FeedUpdate
// @Router /events/{event_id}/registrations/ws [get]
func (e *DashboardController) FeedWebSocketHandler(c *gin.Context) {
	user, err := e.userService.GetUserFromToken(c.Request.URL.Query().Get("token"))
	if err != nil || !(user.HasPermission(repository.PermissionAdmin) || user.HasPermission(repository.PermissionSuperAdmin)) {
		c.JSON(401, gin.H{"error": "Unauthenticated"})
		return
	}
	eventId, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}
	defer conn.Close()

	// send the current count to the new subscriber
	count, err := e.dashboardService.CountForEvent(eventId)
	if err == nil {
		if err := conn.WriteJSON(&FeedUpdate{EventId: eventId, Registrations: count}); err != nil {
			return
		}
	}

	e.mu.Lock()
	if _, ok := e.connections[eventId]; !ok {
		e.connections[eventId] = make(map[*websocket.Conn]bool)
	}
	e.connections[eventId][conn] = true
	e.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			e.mu.Lock()
			delete(e.connections[eventId], conn)
			if len(e.connections[eventId]) == 0 {
				delete(e.connections, eventId)
			}
			e.mu.Unlock()
			return
		}
	}
}

// StartFeedUpdater polls counts for events with subscribers and broadcasts
// changes.
func (e *DashboardController) StartFeedUpdater() {
	go func() {
		for {
			time.Sleep(5 * time.Second)
			e.mu.Lock()
			eventIds := utils.Keys(e.connections)
			e.mu.Unlock()
			for _, eventId := range eventIds {
				count, err := e.dashboardService.CountForEvent(eventId)
				if err != nil {
					continue
				}
				e.mu.Lock()
				if count == e.lastCounts[eventId] {
					e.mu.Unlock()
					continue
				}
				e.lastCounts[eventId] = count
				update := &FeedUpdate{EventId: eventId, Registrations: count}
				for conn := range e.connections[eventId] {
					if err := conn.WriteJSON(update); err != nil {
						delete(e.connections[eventId], conn)
					}
				}
				e.mu.Unlock()
			}
		}
	}()
}

package controller

import (
	"eventdesk/app_error"
	"eventdesk/config"
	"eventdesk/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TrashController struct {
	trashService *service.TrashService
}

func NewTrashController(db *gorm.DB, auditService *service.AuditService) *TrashController {
	return &TrashController{
		trashService: service.NewTrashService(db, auditService),
	}
}

func setupTrashController(db *gorm.DB, auditService *service.AuditService) []RouteInfo {
	e := NewTrashController(db, auditService)
	return []RouteInfo{
		{Method: "GET", Path: "/trash", HandlerFunc: e.listTrashHandler(), Authenticated: true, RequiredRoles: []string{"superadmin"}},
		{Method: "GET", Path: "/cron/purge-trash", HandlerFunc: e.purgeTrashHandler()},
	}
}

// @Description Lists trashed events and registrations with their purge deadlines
// @Tags trash
// @Produce json
// @Success 200 {array} service.TrashedItem
// @Security BearerAuth
// @Router /trash [get]
func (e *TrashController) listTrashHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := e.trashService.ListTrash()
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, items)
	}
}

// @Description Purges records trashed longer than the retention window.
// Invoked by the scheduler, guarded by the cron secret.
// @Tags trash
// @Produce json
// @Success 200 {object} service.PurgeResult
// @Router /cron/purge-trash [get]
func (e *TrashController) purgeTrashHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.Env().CronSecret
		if secret == "" || c.GetHeader("Authorization") != "Bearer "+secret {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		result, err := e.trashService.PurgeExpired()
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, result)
	}
}

package cron

import (
	"context"
	"log"
	"time"

	"eventdesk/service"

	"gorm.io/gorm"
)

const sweepInterval = 24 * time.Hour

// TrashSweepLoop purges expired trash once a day until the context is
// cancelled. The /cron/purge-trash endpoint covers deployments that
// schedule the sweep externally instead.
func TrashSweepLoop(ctx context.Context, db *gorm.DB, auditService *service.AuditService) {
	trashService := service.NewTrashService(db, auditService)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		result, err := trashService.PurgeExpired()
		if err != nil {
			log.Printf("trash sweep failed: %v", err)
		} else if result.EventsPurged > 0 || result.RegistrationsPurged > 0 {
			log.Printf("trash sweep purged %d events, %d registrations", result.EventsPurged, result.RegistrationsPurged)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

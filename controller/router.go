package controller

import (
	"eventdesk/auth"
	"eventdesk/client"
	"eventdesk/service"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouteInfo struct {
	Method        string
	Path          string
	HandlerFunc   gin.HandlerFunc
	Authenticated bool
	RequiredRoles []string
}

func SetRoutes(r *gin.Engine, db *gorm.DB, cacheStore persistence.CacheStore) {
	cacheInvalidator := service.NewCacheInvalidator(cacheStore)
	auditService := service.NewAuditService()
	notificationService := service.NewNotificationService(client.NewMailClient(), client.NewPdfClient())
	gateway := client.NewPaymentClient()

	routes := make([]RouteInfo, 0)
	routes = append(routes, setupEventController(db, cacheStore, auditService, cacheInvalidator)...)
	routes = append(routes, setupRegistrationController(db, notificationService, auditService, cacheInvalidator)...)
	routes = append(routes, setupPaymentController(db, gateway, notificationService, auditService, cacheInvalidator)...)
	routes = append(routes, setupSchoolController(db, cacheStore)...)
	routes = append(routes, setupDashboardController(db, cacheStore)...)
	routes = append(routes, setupTrashController(db, auditService)...)
	routes = append(routes, setupUserController(db)...)
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated {
			handlerfuncs = append(handlerfuncs, AuthMiddleware(route.RequiredRoles))
		}
		handlerfuncs = append(handlerfuncs, route.HandlerFunc)
		r.Handle(route.Method, "/api"+route.Path, handlerfuncs...)
	}
}

func AuthMiddleware(roles []string) gin.HandlerFunc {
	return func(r *gin.Context) {
		authHeader := r.Request.Header.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		token, err := auth.ParseToken(authHeader[7:])
		if err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		if !token.Valid {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		claims := &auth.Claims{}
		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		r.Set("claims", claims)
		if len(roles) == 0 {
			r.Next()
			return
		}

		for _, requiredRole := range roles {
			for _, userRole := range claims.Permissions {
				if requiredRole == userRole {
					r.Next()
					return
				}
			}
		}
		r.JSON(403, gin.H{"error": "Unauthorized"})
		r.Abort()
	}
}

package controller

import (
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

type SchoolController struct {
	schoolService *service.SchoolService
}

func NewSchoolController(db *gorm.DB) *SchoolController {
	return &SchoolController{
		schoolService: service.NewSchoolService(db),
	}
}

func setupSchoolController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewSchoolController(db)
	return []RouteInfo{
		{Method: "GET", Path: "/schools", HandlerFunc: cache.CachePage(cacheStore, time.Minute, e.getSchoolsHandler())},
	}
}

// @Description Lists the school directory for signup autocomplete
// @Tags school
// @Produce json
// @Success 200 {array} string
// @Router /schools [get]
func (e *SchoolController) getSchoolsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		schools, err := e.schoolService.GetAllSchools()
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, utils.Map(schools, func(school *repository.School) string {
			return school.Name
		}))
	}
}

package controller

import (
	"strconv"

	"eventdesk/app_error"
	"eventdesk/repository"
	"eventdesk/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{
		userService: service.NewUserService(db),
	}
}

func setupUserController(db *gorm.DB) []RouteInfo {
	e := NewUserController(db)
	return []RouteInfo{
		{Method: "GET", Path: "/users/self", HandlerFunc: e.getSelfHandler(), Authenticated: true},
		{Method: "PATCH", Path: "/users/:user_id/permissions", HandlerFunc: e.changePermissionsHandler(), Authenticated: true, RequiredRoles: []string{"superadmin"}},
	}
}

type UserResponse struct {
	Id          int      `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func toUserResponse(user *repository.User) *UserResponse {
	return &UserResponse{
		Id:          user.Id,
		Email:       user.Email,
		Name:        user.Name,
		Permissions: user.Permissions,
	}
}

// @Description Returns the authenticated user
// @Tags user
// @Produce json
// @Success 200 {object} UserResponse
// @Security BearerAuth
// @Router /users/self [get]
func (e *UserController) getSelfHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

type PermissionsUpdate struct {
	Permissions []repository.Permission `json:"permissions"`
}

// @Description Replaces a user's permission set
// @Tags user
// @Accept json
// @Produce json
// @Param user_id path int true "User Id"
// @Param update body PermissionsUpdate true "New permission set"
// @Success 200 {object} UserResponse
// @Security BearerAuth
// @Router /users/{user_id}/permissions [patch]
func (e *UserController) changePermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var update PermissionsUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.ChangePermissions(userId, update.Permissions)
		if err != nil {
			app_error.Abort(c, err)
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

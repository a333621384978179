package service

import (
	"fmt"

	"eventdesk/auth"
	"eventdesk/config"
	"eventdesk/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type UserService struct {
	userRepository *repository.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userRepository: repository.NewUserRepository(db),
	}
}

func (s *UserService) GetUserById(id int) (*repository.User, error) {
	return s.userRepository.GetUserById(id)
}

func (s *UserService) SaveUser(user *repository.User) (*repository.User, error) {
	return s.userRepository.SaveUser(user)
}

func (s *UserService) GetUserFromAuthHeader(c *gin.Context) (*repository.User, error) {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return nil, fmt.Errorf("authorization header is invalid")
	}
	return s.GetUserFromToken(authHeader[7:])
}

func (s *UserService) GetUserFromToken(tokenString string) (*repository.User, error) {
	token, err := auth.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims := &auth.Claims{}
	if token.Valid {
		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			return nil, err
		}
		return s.GetUserById(claims.UserId)
	}
	return nil, jwt.ErrInvalidKey
}

func (s *UserService) ChangePermissions(userId int, permissions []repository.Permission) (*repository.User, error) {
	user, err := s.GetUserById(userId)
	if err != nil {
		return nil, err
	}
	stringPermissions := make([]string, 0, len(permissions))
	for _, permission := range permissions {
		stringPermissions = append(stringPermissions, string(permission))
	}
	user.Permissions = stringPermissions
	return s.userRepository.SaveUser(user)
}

// SeedPermissions migrates the env allow-lists into the users table once at
// startup, keeping the table the single authority for roles afterwards.
func (s *UserService) SeedPermissions(cfg *config.Config) error {
	for _, email := range cfg.AdminEmails {
		if err := s.userRepository.GrantPermission(email, repository.PermissionAdmin); err != nil {
			return fmt.Errorf("failed to seed admin %s: %v", email, err)
		}
	}
	for _, email := range cfg.SuperAdminEmails {
		if err := s.userRepository.GrantPermission(email, repository.PermissionSuperAdmin); err != nil {
			return fmt.Errorf("failed to seed superadmin %s: %v", email, err)
		}
	}
	return nil
}

package repository

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Permission string

const (
	PermissionAdmin      Permission = "admin"
	PermissionSuperAdmin Permission = "superadmin"
)

// User rows are the single source of truth for roles. Emails from the env
// allow-lists are migrated in once at startup (SeedPermissions); nothing
// consults the environment per request.
type User struct {
	Id          int            `gorm:"primaryKey"`
	Email       string         `gorm:"not null;uniqueIndex"`
	Name        string         `gorm:"null"`
	Permissions pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
}

func (u *User) HasPermission(permission Permission) bool {
	for _, p := range u.Permissions {
		if p == string(permission) {
			return true
		}
	}
	return false
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserById(userId int) (*User, error) {
	var user User
	result := r.DB.First(&user, userId)
	if result.Error != nil {
		return nil, fmt.Errorf("user with id %d not found", userId)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(email string) (*User, error) {
	var user User
	result := r.DB.First(&user, "email = ?", email)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) SaveUser(user *User) (*User, error) {
	result := r.DB.Save(user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save user: %v", result.Error)
	}
	return user, nil
}

// GrantPermission creates the user row if needed and adds the permission if
// it is not present yet.
func (r *UserRepository) GrantPermission(email string, permission Permission) error {
	var user User
	result := r.DB.Where(&User{Email: email}).FirstOrCreate(&user, &User{Email: email})
	if result.Error != nil {
		return result.Error
	}
	if user.HasPermission(permission) {
		return nil
	}
	user.Permissions = append(user.Permissions, string(permission))
	return r.DB.Save(&user).Error
}

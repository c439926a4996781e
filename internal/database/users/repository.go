// Package users provides database operations for the admin accounts that own
// imported publications.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	admin, err := repo.CreateAdmin("editor", "editor@example.com")
package users

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/manuscripts/internal/entities"
)

var ErrUserExists = errors.New("user already exists")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateAdmin creates an admin user. Username and email must be unique.
func (r *Repository) CreateAdmin(username, email string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		email = username + "@localhost"
	}

	var count int64
	if err := r.db.Model(&entities.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	user := &entities.User{
		Username: username,
		Email:    email,
		IsAdmin:  true,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListAdmins returns all admin users, oldest first.
func (r *Repository) ListAdmins() ([]entities.User, error) {
	var admins []entities.User
	err := r.db.Where("is_admin = ?", true).Order("id ASC").Find(&admins).Error
	return admins, err
}

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NormalizeUsername is applied on every lookup and write: usernames are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Authenticate verifies a username/password pair. A hash in a legacy format is
// transparently upgraded to bcrypt once the password has been proven.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", NormalizeUsername(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.CompareDummy(password)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	if auth.IsLegacyHash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
				s.log.Warn("Could not upgrade legacy password hash", zap.String("username", user.Username), zap.Error(err))
			} else {
				user.PasswordHash = hash
				s.log.Info("Upgraded legacy password hash", zap.String("username", user.Username))
			}
		}
	}
	return &user, nil
}

// UserByID is used by the session gate to re-resolve the caller on each request.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "User")
	}
	return &user, nil
}

// ListUsers returns every account ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser validates every field before anything is written.
func (s *Store) CreateUser(ctx context.Context, username, password string, role models.Role, email string) (*models.User, error) {
	username = NormalizeUsername(username)
	switch {
	case username == "":
		return nil, models.Invalid("username", "is required")
	case password == "":
		return nil, models.Invalid("password", "is required")
	case !role.Valid():
		return nil, models.Invalid("role", "must be Owner, Manager or Cashier")
	case len(password) < auth.MinPasswordLength:
		return nil, models.WeakPassword()
	case len(password) > auth.MaxPasswordLength:
		return nil, models.PasswordTooLong(auth.MaxPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Email:        strings.TrimSpace(email),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &conflictError{what: "User"}
		}
		return translate(tx.Create(&user).Error, "User")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return &user, nil
}

// ChangePassword requires the current password.
func (s *Store) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", NormalizeUsername(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if !auth.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return models.ErrInvalidCredentials
	}
	return s.setPassword(ctx, &user, newPassword)
}

// ResetPassword sets a new password without checking the old one.
func (s *Store) ResetPassword(ctx context.Context, username, newPassword string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", NormalizeUsername(username)).First(&user).Error; err != nil {
		return translate(err, "User")
	}
	return s.setPassword(ctx, &user, newPassword)
}

func (s *Store) setPassword(ctx context.Context, user *models.User, password string) error {
	if len(password) < auth.MinPasswordLength {
		return models.WeakPassword()
	}
	if len(password) > auth.MaxPasswordLength {
		return models.PasswordTooLong(auth.MaxPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return err
	}
	s.log.Info("Password changed", zap.String("username", user.Username))
	return nil
}

// DeleteUser removes target. An account can never delete itself.
func (s *Store) DeleteUser(ctx context.Context, actor, target string) error {
	target = NormalizeUsername(target)
	if target == NormalizeUsername(actor) {
		return models.ErrSelfDeletion
	}

	res := s.db.WithContext(ctx).Where("username = ?", target).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &notFoundError{what: "User"}
	}
	s.log.Info("User deleted", zap.String("username", target), zap.String("by", actor))
	return nil
}

// Bootstrap creates the default Owner when there are no accounts at all.
func (s *Store) Bootstrap(ctx context.Context, username, password, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, username, password, models.RoleOwner, email); err != nil {
		return false, fmt.Errorf("create default owner: %w", err)
	}
	return true, nil
}

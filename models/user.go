package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

// User mirrors the identity provider's record. Authentication itself happens
// upstream; this table only supplies roles and digest recipients.
type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Username   string    `gorm:"index;size:100;not null" json:"username"`
	Email      string    `gorm:"size:100;not null" json:"email"`
	Role       UserRole  `gorm:"type:enum('admin','staff');not null;default:'staff'" json:"role"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"required"`
	Role     UserRole `json:"role"`
}

func (input *NewUser) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateUnique[User](ctx, businessId, "username", input.Username, 0); err != nil {
		return err
	}
	if !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = UserRoleStaff
	}

	user := User{
		BusinessId: businessId,
		Username:   input.Username,
		Email:      input.Email,
		Role:       role,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func GetUser(ctx context.Context, businessId string, id int) (*User, error) {
	return utils.FetchModel[User](ctx, businessId, id)
}

// AdminEmails lists the addresses of one business's active admins, for
// digest delivery. The business filter is explicit because the scheduler
// calls this under a skip-tenant-scope context.
func AdminEmails(ctx context.Context, businessId string) ([]string, error) {
	db := config.GetDB()
	var users []*User
	err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("role = ? AND is_active = ?", UserRoleAdmin, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if user.Email != "" {
			emails = append(emails, user.Email)
		}
	}
	return utils.UniqueSlice(emails), nil
}

package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

type Branch struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Address    string    `gorm:"type:text" json:"address"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Email      string    `gorm:"size:100" json:"email"`
	SgkNumber  string    `gorm:"size:50" json:"sgk_number"`
	BrandId    int       `gorm:"index;not null" json:"brand_id" binding:"required"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBranch struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	SgkNumber string `json:"sgk_number"`
	BrandId   int    `json:"brand_id" binding:"required"`
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Brand](ctx, businessId, input.BrandId); err != nil {
		return nil, errors.New("brand not found")
	}

	branch := Branch{
		BusinessId: businessId,
		Name:       input.Name,
		Address:    input.Address,
		Phone:      input.Phone,
		Email:      input.Email,
		SgkNumber:  input.SgkNumber,
		BrandId:    input.BrandId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, err
	}

	// Counter is maintained eagerly; a failed refresh is not fatal.
	_ = RefreshBranchCount(ctx, businessId, input.BrandId)

	return &branch, nil
}

func GetBranch(ctx context.Context, businessId string, id int) (*Branch, error) {
	return utils.FetchModel[Branch](ctx, businessId, id)
}

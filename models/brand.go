package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

type Brand struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"index;not null" json:"business_id"`
	Name        string    `gorm:"index;size:255;not null" json:"name" binding:"required"`
	TaxNumber   string    `gorm:"size:50" json:"tax_number"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Email       string    `gorm:"size:100" json:"email"`
	CompanyId   int       `gorm:"index;not null" json:"company_id" binding:"required"`
	BranchCount int       `gorm:"not null;default:0" json:"branch_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBrand struct {
	Name      string `json:"name" binding:"required"`
	TaxNumber string `json:"tax_number"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CompanyId int    `json:"company_id" binding:"required"`
}

func CreateBrand(ctx context.Context, input *NewBrand) (*Brand, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Company](ctx, businessId, input.CompanyId); err != nil {
		return nil, errors.New("company not found")
	}
	if err := utils.ValidateUnique[Brand](ctx, businessId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	brand := Brand{
		BusinessId: businessId,
		Name:       input.Name,
		TaxNumber:  input.TaxNumber,
		Phone:      input.Phone,
		Email:      input.Email,
		CompanyId:  input.CompanyId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&brand).Error; err != nil {
		return nil, err
	}

	return &brand, nil
}

func GetBrand(ctx context.Context, businessId string, id int) (*Brand, error) {
	return utils.FetchModel[Brand](ctx, businessId, id)
}

// RefreshBranchCount recounts the brand's branches after branch create/delete.
func RefreshBranchCount(ctx context.Context, businessId string, brandId int) error {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Branch{}).
		Where("business_id = ? AND brand_id = ?", businessId, brandId).
		Count(&count).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&Brand{}).
		Where("business_id = ? AND id = ?", businessId, brandId).
		Update("branch_count", count).Error
}

package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

type Company struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"index;not null" json:"business_id"`
	Title       string    `gorm:"index;size:255;not null" json:"title" binding:"required"`
	TaxNumber   string    `gorm:"index;size:50;not null" json:"tax_number" binding:"required"`
	Email       string    `gorm:"size:100" json:"email"`
	Iban        string    `gorm:"size:34" json:"iban"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Title       string `json:"title" binding:"required"`
	TaxNumber   string `json:"tax_number" binding:"required"`
	Email       string `json:"email"`
	Iban        string `json:"iban"`
	Description string `json:"description"`
}

func (input *NewCompany) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Company](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Company](ctx, businessId, "tax_number", input.TaxNumber, id); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	return nil
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	company := Company{
		BusinessId:  businessId,
		Title:       input.Title,
		TaxNumber:   input.TaxNumber,
		Email:       input.Email,
		Iban:        input.Iban,
		Description: input.Description,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}

	return &company, nil
}

func GetCompany(ctx context.Context, businessId string, id int) (*Company, error) {
	return utils.FetchModel[Company](ctx, businessId, id)
}

// CompanyIdByTaxNumber resolves a company by tax number within the caller's
// business. Spreadsheet imports use this to link rows to a company.
func CompanyIdByTaxNumber(ctx context.Context, taxNumber string) (int, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return 0, errors.New("business id is required")
	}

	db := config.GetDB()
	var company Company
	err := db.WithContext(ctx).
		Select("id").
		Where("business_id = ? AND tax_number = ?", businessId, taxNumber).
		First(&company).Error
	if err != nil {
		return 0, utils.ErrorRecordNotFound
	}
	return company.ID, nil
}

// ActiveCompanies lists active companies across every tenant. Scheduler use
// only; the caller must carry a skip-tenant-scope context.
func ActiveCompanies(ctx context.Context) ([]*Company, error) {
	db := config.GetDB()
	var companies []*Company
	if err := db.WithContext(ctx).Where("is_active = ?", true).Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Contract struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	ContractNumber   string          `gorm:"index;size:50;not null" json:"contract_number" binding:"required"`
	Title            string          `gorm:"size:255;not null" json:"title" binding:"required"`
	Status           ContractStatus  `gorm:"type:enum('draft','active','expired','terminated');not null;default:'draft';index" json:"status"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	StartDate        time.Time       `gorm:"not null" json:"start_date" binding:"required"`
	EndDate          time.Time       `gorm:"not null;index" json:"end_date" binding:"required"`
	TemplateName     string          `gorm:"size:255" json:"template_name"`
	File             string          `gorm:"size:500" json:"file"`
	Description      string          `gorm:"type:text" json:"description"`
	RelatedCompanyId *int            `gorm:"index" json:"related_company_id"`
	RelatedBrandId   *int            `gorm:"index" json:"related_brand_id"`
	RelatedBranchId  *int            `gorm:"index" json:"related_branch_id"`
	RelatedPersonId  *int            `gorm:"index" json:"related_person_id"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewContract struct {
	ContractNumber   string          `json:"contract_number" binding:"required"`
	Title            string          `json:"title" binding:"required"`
	Amount           decimal.Decimal `json:"amount"`
	StartDate        time.Time       `json:"start_date" binding:"required"`
	EndDate          time.Time       `json:"end_date" binding:"required"`
	TemplateName     string          `json:"template_name"`
	Description      string          `json:"description"`
	RelatedCompanyId *int            `json:"related_company_id"`
	RelatedBrandId   *int            `json:"related_brand_id"`
	RelatedBranchId  *int            `json:"related_branch_id"`
	RelatedPersonId  *int            `json:"related_person_id"`
}

func (input *NewContract) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateUnique[Contract](ctx, businessId, "contract_number", input.ContractNumber, 0); err != nil {
		return err
	}
	if input.EndDate.Before(input.StartDate) {
		return errors.New("end date must not be before start date")
	}
	if input.RelatedCompanyId != nil {
		if err := utils.ValidateResourceId[Company](ctx, businessId, *input.RelatedCompanyId); err != nil {
			return errors.New("related company not found")
		}
	}
	if input.RelatedPersonId != nil {
		if err := utils.ValidateResourceId[Person](ctx, businessId, *input.RelatedPersonId); err != nil {
			return errors.New("related person not found")
		}
	}
	return nil
}

func CreateContract(ctx context.Context, input *NewContract) (*Contract, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	contract := Contract{
		BusinessId:       businessId,
		ContractNumber:   input.ContractNumber,
		Title:            input.Title,
		Status:           ContractStatusDraft,
		Amount:           input.Amount,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		TemplateName:     input.TemplateName,
		Description:      input.Description,
		RelatedCompanyId: input.RelatedCompanyId,
		RelatedBrandId:   input.RelatedBrandId,
		RelatedBranchId:  input.RelatedBranchId,
		RelatedPersonId:  input.RelatedPersonId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&contract).Error; err != nil {
		return nil, err
	}

	return &contract, nil
}

func GetContract(ctx context.Context, businessId string, id int) (*Contract, error) {
	return utils.FetchModel[Contract](ctx, businessId, id)
}

// UpdateContractFile records the rendered document reference on the contract.
func UpdateContractFile(ctx context.Context, businessId string, id int, fileRef string) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Contract{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Update("file", fileRef)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// expiredContractScope matches only still-active contracts past their end
// date, so rows a previous sweep already flipped never match again.
func expiredContractScope(today time.Time) func(*gorm.DB) *gorm.DB {
	cutoff := utils.TruncateToDate(today)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", ContractStatusActive).Where("end_date < ?", cutoff)
	}
}

// SweepExpiredContracts flips active contracts whose end date has passed to
// expired. Idempotent; runs cross-tenant under a skip-tenant-scope context.
func SweepExpiredContracts(ctx context.Context, today time.Time) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Contract{}).
		Scopes(expiredContractScope(today)).
		Update("status", ContractStatusExpired)
	return result.RowsAffected, result.Error
}

// FindExpiringContracts lists active contracts ending within the next `days`
// days, soonest first.
func FindExpiringContracts(ctx context.Context, today time.Time, days int) ([]*Contract, error) {
	db := config.GetDB()
	from := utils.TruncateToDate(today)
	to := from.AddDate(0, 0, days)
	var contracts []*Contract
	err := db.WithContext(ctx).
		Where("status = ?", ContractStatusActive).
		Where("end_date >= ? AND end_date <= ?", from, to).
		Order("end_date ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/shopspring/decimal"
)

// FinancialRecord links redundantly to every level of the scope hierarchy so
// either aggregation strategy works without joins. A record with no links is
// orphaned but legal.
type FinancialRecord struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	Title            string          `gorm:"size:255;not null" json:"title" binding:"required"`
	Kind             RecordKind      `gorm:"type:enum('income','expense','turnover','profit_share');not null;index" json:"kind" binding:"required"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Currency         string          `gorm:"size:3;not null;default:'TRY'" json:"currency"`
	Date             time.Time       `gorm:"not null;index" json:"date" binding:"required"`
	Description      string          `gorm:"type:text" json:"description"`
	RelatedCompanyId *int            `gorm:"index" json:"related_company_id"`
	RelatedBrandId   *int            `gorm:"index" json:"related_brand_id"`
	RelatedBranchId  *int            `gorm:"index" json:"related_branch_id"`
	RelatedPersonId  *int            `gorm:"index" json:"related_person_id"`
	CreatedBy        int             `gorm:"index" json:"created_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFinancialRecord struct {
	Title            string          `json:"title" binding:"required" validate:"required"`
	Kind             RecordKind      `json:"kind" binding:"required" validate:"required"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" validate:"required,len=3"`
	Date             time.Time       `json:"date" binding:"required"`
	Description      string          `json:"description"`
	RelatedCompanyId *int            `json:"related_company_id"`
	RelatedBrandId   *int            `json:"related_brand_id"`
	RelatedBranchId  *int            `json:"related_branch_id"`
	RelatedPersonId  *int            `json:"related_person_id"`
}

func (input *NewFinancialRecord) validate(ctx context.Context, businessId string) error {
	if !input.Kind.Valid() {
		return errors.New("invalid record kind")
	}
	if input.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	if input.Date.IsZero() {
		return errors.New("date is required")
	}
	// Scope links are optional and may be set at all levels simultaneously,
	// but each one that is set must resolve.
	if input.RelatedCompanyId != nil {
		if err := utils.ValidateResourceId[Company](ctx, businessId, *input.RelatedCompanyId); err != nil {
			return errors.New("related company not found")
		}
	}
	if input.RelatedBrandId != nil {
		if err := utils.ValidateResourceId[Brand](ctx, businessId, *input.RelatedBrandId); err != nil {
			return errors.New("related brand not found")
		}
	}
	if input.RelatedBranchId != nil {
		if err := utils.ValidateResourceId[Branch](ctx, businessId, *input.RelatedBranchId); err != nil {
			return errors.New("related branch not found")
		}
	}
	if input.RelatedPersonId != nil {
		if err := utils.ValidateResourceId[Person](ctx, businessId, *input.RelatedPersonId); err != nil {
			return errors.New("related person not found")
		}
	}
	return nil
}

func CreateFinancialRecord(ctx context.Context, input *NewFinancialRecord) (*FinancialRecord, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	record := FinancialRecord{
		BusinessId:       businessId,
		Title:            input.Title,
		Kind:             input.Kind,
		Amount:           input.Amount,
		Currency:         input.Currency,
		Date:             input.Date,
		Description:      input.Description,
		RelatedCompanyId: input.RelatedCompanyId,
		RelatedBrandId:   input.RelatedBrandId,
		RelatedBranchId:  input.RelatedBranchId,
		RelatedPersonId:  input.RelatedPersonId,
		CreatedBy:        userId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

// RecordsForScope fetches the records linked to one scope entity within
// [from, to] inclusive. Column must come from ScopeKind.RelationColumn.
func RecordsForScope(ctx context.Context, businessId string, relationColumn string, scopeId int, from time.Time, to time.Time) ([]*FinancialRecord, error) {
	db := config.GetDB()
	var records []*FinancialRecord
	err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where(relationColumn+" = ?", scopeId).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, utils.Transient(err)
	}
	return records, nil
}

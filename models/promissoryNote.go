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

type PromissoryNote struct {
	ID               int               `gorm:"primary_key" json:"id"`
	BusinessId       string            `gorm:"index;not null" json:"business_id"`
	Title            string            `gorm:"size:255;not null" json:"title" binding:"required"`
	NoteNumber       string            `gorm:"index;size:50;not null" json:"note_number" binding:"required"`
	Amount           decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency         string            `gorm:"size:3;not null;default:'TRY'" json:"currency"`
	DueDate          time.Time         `gorm:"not null;index" json:"due_date" binding:"required"`
	PaymentStatus    NotePaymentStatus `gorm:"type:enum('pending','paid','overdue');not null;default:'pending';index" json:"payment_status"`
	Description      string            `gorm:"type:text" json:"description"`
	File             string            `gorm:"size:500" json:"file"`
	RelatedCompanyId *int              `gorm:"index" json:"related_company_id"`
	RelatedPersonId  *int              `gorm:"index" json:"related_person_id"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPromissoryNote struct {
	Title            string          `json:"title" binding:"required"`
	NoteNumber       string          `json:"note_number" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Currency         string          `json:"currency"`
	DueDate          time.Time       `json:"due_date" binding:"required"`
	Description      string          `json:"description"`
	RelatedCompanyId *int            `json:"related_company_id"`
	RelatedPersonId  *int            `json:"related_person_id"`
}

func (input *NewPromissoryNote) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateUnique[PromissoryNote](ctx, businessId, "note_number", input.NoteNumber, 0); err != nil {
		return err
	}
	if !input.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if input.DueDate.IsZero() {
		return errors.New("due date is required")
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

func CreatePromissoryNote(ctx context.Context, input *NewPromissoryNote) (*PromissoryNote, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "TRY"
	}

	note := PromissoryNote{
		BusinessId:       businessId,
		Title:            input.Title,
		NoteNumber:       input.NoteNumber,
		Amount:           input.Amount,
		Currency:         currency,
		DueDate:          input.DueDate,
		PaymentStatus:    NoteStatusPending,
		Description:      input.Description,
		RelatedCompanyId: input.RelatedCompanyId,
		RelatedPersonId:  input.RelatedPersonId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}

	return &note, nil
}

func GetPromissoryNote(ctx context.Context, businessId string, id int) (*PromissoryNote, error) {
	return utils.FetchModel[PromissoryNote](ctx, businessId, id)
}

// overdueNoteScope matches only still-pending notes past their due date, so
// rows a previous sweep already flipped never match again.
func overdueNoteScope(today time.Time) func(*gorm.DB) *gorm.DB {
	cutoff := utils.TruncateToDate(today)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("payment_status = ?", NoteStatusPending).Where("due_date < ?", cutoff)
	}
}

// SweepOverdueNotes flips pending notes past their due date to overdue.
// Idempotent; runs cross-tenant under a skip-tenant-scope context.
func SweepOverdueNotes(ctx context.Context, today time.Time) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&PromissoryNote{}).
		Scopes(overdueNoteScope(today)).
		Update("payment_status", NoteStatusOverdue)
	return result.RowsAffected, result.Error
}

// FindOverdueNotes lists overdue notes, oldest due date first.
func FindOverdueNotes(ctx context.Context) ([]*PromissoryNote, error) {
	db := config.GetDB()
	var notes []*PromissoryNote
	err := db.WithContext(ctx).
		Where("payment_status = ?", NoteStatusOverdue).
		Order("due_date ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

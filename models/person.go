package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

type Person struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	FullName   string    `gorm:"index;size:255;not null" json:"full_name" binding:"required"`
	NationalId string    `gorm:"size:11" json:"national_id"`
	Address    string    `gorm:"type:text" json:"address"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Email      string    `gorm:"size:100" json:"email"`
	Iban       string    `gorm:"size:34" json:"iban"`
	BranchId   int       `gorm:"index" json:"branch_id"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPerson struct {
	FullName   string `json:"full_name" binding:"required"`
	NationalId string `json:"national_id"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Iban       string `json:"iban"`
	BranchId   int    `json:"branch_id"`
}

func CreatePerson(ctx context.Context, input *NewPerson) (*Person, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if input.BranchId > 0 {
		if err := utils.ValidateResourceId[Branch](ctx, businessId, input.BranchId); err != nil {
			return nil, errors.New("branch not found")
		}
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}

	person := Person{
		BusinessId: businessId,
		FullName:   input.FullName,
		NationalId: input.NationalId,
		Address:    input.Address,
		Phone:      input.Phone,
		Email:      input.Email,
		Iban:       input.Iban,
		BranchId:   input.BranchId,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&person).Error; err != nil {
		return nil, err
	}

	return &person, nil
}

func GetPerson(ctx context.Context, businessId string, id int) (*Person, error) {
	return utils.FetchModel[Person](ctx, businessId, id)
}

// MaskedNationalId is what leaves the system in digests and rendered documents.
func (p *Person) MaskedNationalId() string {
	return utils.MaskSensitive(p.NationalId, "national_id")
}

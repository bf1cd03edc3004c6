package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

const reportCacheTTL = 5 * time.Minute

type Report struct {
	ID               int        `gorm:"primary_key" json:"id"`
	BusinessId       string     `gorm:"index;not null" json:"business_id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	ReportType       ReportType `gorm:"type:enum('daily','weekly','monthly','yearly','custom');not null" json:"report_type"`
	RelatedCompanyId *int       `gorm:"index" json:"related_company_id"`
	RelatedBrandId   *int       `gorm:"index" json:"related_brand_id"`
	RelatedBranchId  *int       `gorm:"index" json:"related_branch_id"`
	RelatedPersonId  *int       `gorm:"index" json:"related_person_id"`
	DateFrom         *time.Time `json:"date_from"`
	DateTo           *time.Time `json:"date_to"`
	ReportDate       time.Time  `gorm:"index" json:"report_date"`
	Content          string     `gorm:"type:text" json:"content"`
	File             string     `gorm:"size:500" json:"file"`
	CreatedBy        int        `gorm:"index" json:"created_by"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReport struct {
	Title            string     `json:"title" binding:"required"`
	ReportType       ReportType `json:"report_type" binding:"required"`
	RelatedCompanyId *int       `json:"related_company_id"`
	RelatedBrandId   *int       `json:"related_brand_id"`
	RelatedBranchId  *int       `json:"related_branch_id"`
	RelatedPersonId  *int       `json:"related_person_id"`
	DateFrom         *time.Time `json:"date_from"`
	DateTo           *time.Time `json:"date_to"`
}

// Scope returns the single scope the report targets. Exactly one of the
// related ids must be set.
func (input *NewReport) Scope() (ScopeKind, int, error) {
	var kind ScopeKind
	var id, count int
	if input.RelatedCompanyId != nil {
		kind, id, count = ScopeCompany, *input.RelatedCompanyId, count+1
	}
	if input.RelatedBrandId != nil {
		kind, id, count = ScopeBrand, *input.RelatedBrandId, count+1
	}
	if input.RelatedBranchId != nil {
		kind, id, count = ScopeBranch, *input.RelatedBranchId, count+1
	}
	if input.RelatedPersonId != nil {
		kind, id, count = ScopePerson, *input.RelatedPersonId, count+1
	}
	if count != 1 {
		return "", 0, errors.New("exactly one scope must be set")
	}
	return kind, id, nil
}

func (input *NewReport) validate(ctx context.Context, businessId string) error {
	if !input.ReportType.Valid() {
		return errors.New("invalid report type")
	}
	kind, id, err := input.Scope()
	if err != nil {
		return err
	}
	switch kind {
	case ScopeCompany:
		err = utils.ValidateResourceId[Company](ctx, businessId, id)
	case ScopeBrand:
		err = utils.ValidateResourceId[Brand](ctx, businessId, id)
	case ScopeBranch:
		err = utils.ValidateResourceId[Branch](ctx, businessId, id)
	case ScopePerson:
		err = utils.ValidateResourceId[Person](ctx, businessId, id)
	}
	if err != nil {
		return utils.ErrorScopeNotFound
	}
	if input.ReportType == ReportTypeCustom {
		if input.DateFrom == nil || input.DateTo == nil {
			return errors.New("custom reports require date_from and date_to")
		}
		if input.DateTo.Before(*input.DateFrom) {
			return errors.New("date_to must not be before date_from")
		}
	}
	return nil
}

func CreateReport(ctx context.Context, input *NewReport) (*Report, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	report := Report{
		BusinessId:       businessId,
		Title:            input.Title,
		ReportType:       input.ReportType,
		RelatedCompanyId: input.RelatedCompanyId,
		RelatedBrandId:   input.RelatedBrandId,
		RelatedBranchId:  input.RelatedBranchId,
		RelatedPersonId:  input.RelatedPersonId,
		DateFrom:         input.DateFrom,
		DateTo:           input.DateTo,
		ReportDate:       utils.TruncateToDate(time.Now()),
		CreatedBy:        userId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}

	return &report, nil
}

func GetReport(ctx context.Context, businessId string, id int) (*Report, error) {
	return utils.FetchModel[Report](ctx, businessId, id)
}

func reportCacheKey(businessId string, id int) string {
	return fmt.Sprintf("report:%s:%d", businessId, id)
}

// GetReportCached reads through the Redis cache; the key is invalidated when
// the artifact lands, so polling clients may hit Redis instead of MySQL.
// Without a connected Redis every read falls through to the database.
func GetReportCached(ctx context.Context, businessId string, id int) (*Report, error) {
	key := reportCacheKey(businessId, id)

	var cached Report
	if hit, err := config.GetRedisObject(key, &cached); err == nil && hit {
		return &cached, nil
	}

	report, err := utils.FetchModel[Report](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(key, report, reportCacheTTL); err != nil {
		config.LogError(config.GetLogger(), "models", "GetReportCached", "cannot cache report", map[string]interface{}{
			"report_id": id,
		}, err)
	}
	return report, nil
}

// UpdateReportArtifact records the rendered artifact reference and its text
// summary on the report. The report is treated as immutable afterwards.
func UpdateReportArtifact(ctx context.Context, businessId string, id int, fileRef, content string) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Report{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Updates(map[string]interface{}{"file": fileRef, "content": content})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	if err := config.RemoveRedisKey(reportCacheKey(businessId, id)); err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateReportArtifact", "cannot invalidate report cache", map[string]interface{}{
			"report_id": id,
		}, err)
	}
	return nil
}

// DeleteReportsOlderThan removes report rows created before the cutoff and
// returns the artifact references of the deleted rows so the caller can clean
// up storage. Runs cross-tenant under a skip-tenant-scope context.
func DeleteReportsOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	db := config.GetDB()

	var stale []*Report
	if err := db.WithContext(ctx).
		Select("id", "file").
		Where("created_at < ?", cutoff).
		Find(&stale).Error; err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(stale))
	refs := make([]string, 0, len(stale))
	for _, report := range stale {
		ids = append(ids, report.ID)
		if report.File != "" {
			refs = append(refs, report.File)
		}
	}

	if err := db.WithContext(ctx).Where("id IN ?", ids).Delete(&Report{}).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

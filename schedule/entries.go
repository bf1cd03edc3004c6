package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/jobs"
	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/reports"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	contractExpiryWindowDays = 30
	reportRetentionDays      = 90
	digestListLimit          = 10
)

// generateDailyReports queues one daily report per active company. A failure
// on one company never blocks the rest.
func (s *Scheduler) generateDailyReports(ctx context.Context) {
	logger := config.GetLogger()

	companies, err := models.ActiveCompanies(ctx)
	if err != nil {
		config.LogError(logger, "schedule", "generateDailyReports", "cannot list companies", nil, err)
		return
	}

	queued := 0
	for _, company := range companies {
		tenantCtx := utils.SetBusinessIdInContext(ctx, company.BusinessId)

		companyId := company.ID
		report, err := models.CreateReport(tenantCtx, &models.NewReport{
			Title:            fmt.Sprintf("Daily Report - %s - %s", company.Title, time.Now().Format("2006-01-02")),
			ReportType:       models.ReportTypeDaily,
			RelatedCompanyId: &companyId,
		})
		if err != nil {
			config.LogError(logger, "schedule", "generateDailyReports", "cannot create report", map[string]interface{}{
				"company_id": company.ID,
			}, err)
			continue
		}

		if _, err := jobs.SubmitGenerateReport(tenantCtx, s.executor, report, "xlsx"); err != nil {
			config.LogError(logger, "schedule", "generateDailyReports", "cannot queue report", map[string]interface{}{
				"report_id": report.ID,
			}, err)
			continue
		}
		queued++
	}

	logger.WithFields(logrus.Fields{
		"module":    "schedule",
		"companies": len(companies),
		"queued":    queued,
	}).Info("daily reports queued")
}

func (s *Scheduler) sweepExpiredContracts(ctx context.Context) {
	logger := config.GetLogger()
	flipped, err := models.SweepExpiredContracts(ctx, time.Now())
	if err != nil {
		config.LogError(logger, "schedule", "sweepExpiredContracts", "sweep failed", nil, err)
		return
	}
	logger.WithFields(logrus.Fields{"module": "schedule", "expired": flipped}).
		Info("expired contracts swept")
}

func (s *Scheduler) sweepOverdueNotes(ctx context.Context) {
	logger := config.GetLogger()
	flipped, err := models.SweepOverdueNotes(ctx, time.Now())
	if err != nil {
		config.LogError(logger, "schedule", "sweepOverdueNotes", "sweep failed", nil, err)
		return
	}
	logger.WithFields(logrus.Fields{"module": "schedule", "overdue": flipped}).
		Info("overdue notes swept")
}

// groupByBusiness partitions cross-tenant rows by business id. Every digest
// is built from exactly one partition and sent to that business's admins, so
// one tenant's rows never reach another tenant's mailbox.
func groupByBusiness[T any](items []T, businessId func(T) string) map[string][]T {
	groups := make(map[string][]T)
	for _, item := range items {
		key := businessId(item)
		groups[key] = append(groups[key], item)
	}
	return groups
}

// sendTenantDigest looks up the business's admins and delivers one digest.
// A business without active admins is skipped.
func (s *Scheduler) sendTenantDigest(ctx context.Context, funcName, businessId, subject, body string) {
	recipients, err := models.AdminEmails(ctx, businessId)
	if err != nil {
		config.LogError(config.GetLogger(), "schedule", funcName, "cannot list recipients", map[string]interface{}{
			"business_id": businessId,
		}, err)
		return
	}
	if len(recipients) == 0 {
		return
	}
	s.sender.SendDigest(recipients, subject, body)
}

func (s *Scheduler) contractExpiryDigest(ctx context.Context) {
	logger := config.GetLogger()

	contracts, err := models.FindExpiringContracts(ctx, time.Now(), contractExpiryWindowDays)
	if err != nil {
		config.LogError(logger, "schedule", "contractExpiryDigest", "cannot list contracts", nil, err)
		return
	}

	byBusiness := groupByBusiness(contracts, func(c *models.Contract) string { return c.BusinessId })
	for businessId, group := range byBusiness {
		s.sendTenantDigest(ctx, "contractExpiryDigest", businessId, "Contracts expiring soon", contractDigestBody(group))
	}
}

func contractDigestBody(contracts []*models.Contract) string {
	var body strings.Builder
	fmt.Fprintf(&body, "%d contract(s) expire within %d days:\n\n", len(contracts), contractExpiryWindowDays)
	for i, contract := range contracts {
		if i == digestListLimit {
			fmt.Fprintf(&body, "... and %d more\n", len(contracts)-digestListLimit)
			break
		}
		fmt.Fprintf(&body, "- %s (%s) ends %s\n", contract.Title, contract.ContractNumber, contract.EndDate.Format("2006-01-02"))
	}
	return body.String()
}

func (s *Scheduler) overdueNoteDigest(ctx context.Context) {
	logger := config.GetLogger()

	notes, err := models.FindOverdueNotes(ctx)
	if err != nil {
		config.LogError(logger, "schedule", "overdueNoteDigest", "cannot list notes", nil, err)
		return
	}

	byBusiness := groupByBusiness(notes, func(n *models.PromissoryNote) string { return n.BusinessId })
	for businessId, group := range byBusiness {
		s.sendTenantDigest(ctx, "overdueNoteDigest", businessId, "Overdue promissory notes", noteDigestBody(group))
	}
}

func noteDigestBody(notes []*models.PromissoryNote) string {
	outstanding := decimal.Zero
	var body strings.Builder
	fmt.Fprintf(&body, "%d promissory note(s) are overdue:\n\n", len(notes))
	for i, note := range notes {
		outstanding = outstanding.Add(note.Amount)
		if i < digestListLimit {
			fmt.Fprintf(&body, "- %s: %s %s due %s\n", note.NoteNumber, note.Amount.StringFixed(2), note.Currency, note.DueDate.Format("2006-01-02"))
		}
	}
	if len(notes) > digestListLimit {
		fmt.Fprintf(&body, "... and %d more\n", len(notes)-digestListLimit)
	}
	fmt.Fprintf(&body, "\nTotal outstanding: %s\n", outstanding.StringFixed(2))
	return body.String()
}

// cleanupOldReports drops report rows past the retention window and removes
// their artifacts. Artifact deletion is best effort.
func (s *Scheduler) cleanupOldReports(ctx context.Context) {
	logger := config.GetLogger()

	cutoff := time.Now().AddDate(0, 0, -reportRetentionDays)
	refs, err := models.DeleteReportsOlderThan(ctx, cutoff)
	if err != nil {
		config.LogError(logger, "schedule", "cleanupOldReports", "cleanup failed", nil, err)
		return
	}

	store := utils.GetArtifactStore()
	removed := 0
	for _, ref := range refs {
		if store.Delete(ctx, ref) {
			removed++
		}
	}

	logger.WithFields(logrus.Fields{
		"module":            "schedule",
		"deleted_reports":   len(refs),
		"deleted_artifacts": removed,
	}).Info("old reports cleaned up")
}

// monthlySummaryDigest aggregates last month's numbers per company and mails
// each business a digest covering only its own companies.
func (s *Scheduler) monthlySummaryDigest(ctx context.Context) {
	logger := config.GetLogger()

	companies, err := models.ActiveCompanies(ctx)
	if err != nil {
		config.LogError(logger, "schedule", "monthlySummaryDigest", "cannot list companies", nil, err)
		return
	}

	from, to := utils.PreviousMonthRange(time.Now())

	byBusiness := groupByBusiness(companies, func(c *models.Company) string { return c.BusinessId })
	for businessId, group := range byBusiness {
		tenantCtx := utils.SetBusinessIdInContext(ctx, businessId)

		var body strings.Builder
		fmt.Fprintf(&body, "Monthly summary for %s:\n\n", from.Format("January 2006"))
		lines := 0
		for _, company := range group {
			result, err := reports.Aggregate(tenantCtx, models.ScopeCompany, company.ID, models.ReportTypeCustom, to, &reports.DateRange{From: from, To: to})
			if err != nil {
				config.LogError(logger, "schedule", "monthlySummaryDigest", "aggregation failed", map[string]interface{}{
					"company_id": company.ID,
				}, err)
				continue
			}
			fmt.Fprintf(&body, "%s: income %s, expense %s, net %s (%d records)\n",
				company.Title,
				result.Totals.Income.StringFixed(2),
				result.Totals.Expense.StringFixed(2),
				result.NetProfit.StringFixed(2),
				result.RecordCount)
			lines++
		}
		if lines == 0 {
			continue
		}

		s.sendTenantDigest(ctx, "monthlySummaryDigest", businessId, "Monthly financial summary", body.String())
	}
}

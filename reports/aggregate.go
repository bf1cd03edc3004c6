package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/shopspring/decimal"
)

// DateRange is an inclusive [From, To] window, required for custom reports.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AggregationResult carries everything the renderers need, so rendering never
// touches the database.
type AggregationResult struct {
	Scope       models.ScopeKind          `json:"scope"`
	ScopeId     int                       `json:"scope_id"`
	ScopeTitle  string                    `json:"scope_title"`
	ReportType  models.ReportType         `json:"report_type"`
	From        time.Time                 `json:"from"`
	To          time.Time                 `json:"to"`
	Totals      TotalsByKind              `json:"totals"`
	NetProfit   decimal.Decimal           `json:"net_profit"`
	RecordCount int                       `json:"record_count"`
	Records     []*models.FinancialRecord `json:"records"`
}

// Summary renders the result as a short plain-text block, stored on the
// report row next to the artifact reference.
func (r *AggregationResult) Summary() string {
	return fmt.Sprintf(
		"%s report for %s (%s)\nPeriod: %s - %s\nIncome: %s\nExpense: %s\nTurnover: %s\nProfit share: %s\nNet profit: %s\nRecords: %d",
		string(r.ReportType), r.ScopeTitle, string(r.Scope),
		r.From.Format("2006-01-02"), r.To.Format("2006-01-02"),
		r.Totals.Income.StringFixed(2), r.Totals.Expense.StringFixed(2),
		r.Totals.Turnover.StringFixed(2), r.Totals.ProfitShare.StringFixed(2),
		r.NetProfit.StringFixed(2), r.RecordCount,
	)
}

type TotalsByKind struct {
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Turnover    decimal.Decimal `json:"turnover"`
	ProfitShare decimal.Decimal `json:"profit_share"`
}

// Window resolves a report type to its inclusive date window ending at asOf.
// Custom reports take their window from the supplied range instead.
func Window(reportType models.ReportType, asOf time.Time, custom *DateRange) (time.Time, time.Time, error) {
	to := utils.TruncateToDate(asOf)
	switch reportType {
	case models.ReportTypeDaily:
		return to, to, nil
	case models.ReportTypeWeekly:
		return to.AddDate(0, 0, -6), to, nil
	case models.ReportTypeMonthly:
		return to.AddDate(0, 0, -29), to, nil
	case models.ReportTypeYearly:
		return to.AddDate(0, 0, -364), to, nil
	case models.ReportTypeCustom:
		if custom == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("custom reports require a date range")
		}
		from := utils.TruncateToDate(custom.From)
		until := utils.TruncateToDate(custom.To)
		if until.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("date range end before start")
		}
		return from, until, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid report type %q", string(reportType))
	}
}

// Reduce sums the records by kind. Pure; callers own the fetch.
func Reduce(records []*models.FinancialRecord) (TotalsByKind, decimal.Decimal) {
	var totals TotalsByKind
	for _, record := range records {
		switch record.Kind {
		case models.RecordKindIncome:
			totals.Income = totals.Income.Add(record.Amount)
		case models.RecordKindExpense:
			totals.Expense = totals.Expense.Add(record.Amount)
		case models.RecordKindTurnover:
			totals.Turnover = totals.Turnover.Add(record.Amount)
		case models.RecordKindProfitShare:
			totals.ProfitShare = totals.ProfitShare.Add(record.Amount)
		}
	}
	return totals, totals.Income.Sub(totals.Expense)
}

// Aggregate resolves the scope entity, computes the date window and reduces
// the records linked to that scope. A missing scope entity is a permanent
// failure; database errors are transient.
func Aggregate(ctx context.Context, scope models.ScopeKind, scopeId int, reportType models.ReportType, asOf time.Time, custom *DateRange) (*AggregationResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, fmt.Errorf("business id is required")
	}

	title, err := resolveScopeTitle(ctx, businessId, scope, scopeId)
	if err != nil {
		return nil, err
	}

	from, to, err := Window(reportType, asOf, custom)
	if err != nil {
		return nil, err
	}

	column, err := scope.RelationColumn()
	if err != nil {
		return nil, err
	}

	// End of window at 23:59:59 so same-day records with a time component
	// still count.
	records, err := models.RecordsForScope(ctx, businessId, column, scopeId, from, to.Add(24*time.Hour-time.Second))
	if err != nil {
		return nil, err
	}

	totals, netProfit := Reduce(records)

	return &AggregationResult{
		Scope:       scope,
		ScopeId:     scopeId,
		ScopeTitle:  title,
		ReportType:  reportType,
		From:        from,
		To:          to,
		Totals:      totals,
		NetProfit:   netProfit,
		RecordCount: len(records),
		Records:     records,
	}, nil
}

func resolveScopeTitle(ctx context.Context, businessId string, scope models.ScopeKind, scopeId int) (string, error) {
	switch scope {
	case models.ScopeCompany:
		company, err := models.GetCompany(ctx, businessId, scopeId)
		if err != nil {
			return "", utils.ErrorScopeNotFound
		}
		return company.Title, nil
	case models.ScopeBrand:
		brand, err := models.GetBrand(ctx, businessId, scopeId)
		if err != nil {
			return "", utils.ErrorScopeNotFound
		}
		return brand.Name, nil
	case models.ScopeBranch:
		branch, err := models.GetBranch(ctx, businessId, scopeId)
		if err != nil {
			return "", utils.ErrorScopeNotFound
		}
		return branch.Name, nil
	case models.ScopePerson:
		person, err := models.GetPerson(ctx, businessId, scopeId)
		if err != nil {
			return "", utils.ErrorScopeNotFound
		}
		return person.FullName, nil
	default:
		return "", fmt.Errorf("invalid scope kind %q", string(scope))
	}
}

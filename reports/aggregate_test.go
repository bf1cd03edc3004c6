package reports

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"github.com/shopspring/decimal"
)

func record(kind models.RecordKind, amount string) *models.FinancialRecord {
	return &models.FinancialRecord{
		Kind:   kind,
		Amount: decimal.RequireFromString(amount),
	}
}

func TestReduceSumsByKind(t *testing.T) {
	records := []*models.FinancialRecord{
		record(models.RecordKindIncome, "1000.50"),
		record(models.RecordKindIncome, "249.50"),
		record(models.RecordKindExpense, "300.25"),
		record(models.RecordKindTurnover, "5000"),
		record(models.RecordKindProfitShare, "125.75"),
	}

	totals, netProfit := Reduce(records)

	if got := totals.Income.StringFixed(2); got != "1250.00" {
		t.Fatalf("income: got %s", got)
	}
	if got := totals.Expense.StringFixed(2); got != "300.25" {
		t.Fatalf("expense: got %s", got)
	}
	if got := totals.Turnover.StringFixed(2); got != "5000.00" {
		t.Fatalf("turnover: got %s", got)
	}
	if got := totals.ProfitShare.StringFixed(2); got != "125.75" {
		t.Fatalf("profit share: got %s", got)
	}
	if got := netProfit.StringFixed(2); got != "950.25" {
		t.Fatalf("net profit: got %s", got)
	}
}

func TestReduceEmpty(t *testing.T) {
	totals, netProfit := Reduce(nil)
	if !totals.Income.IsZero() || !totals.Expense.IsZero() || !netProfit.IsZero() {
		t.Fatalf("expected zero totals, got %+v net %s", totals, netProfit)
	}
}

func TestReduceNegativeNetProfit(t *testing.T) {
	records := []*models.FinancialRecord{
		record(models.RecordKindIncome, "100"),
		record(models.RecordKindExpense, "250"),
	}
	_, netProfit := Reduce(records)
	if got := netProfit.StringFixed(2); got != "-150.00" {
		t.Fatalf("net profit: got %s", got)
	}
}

func TestWindowByReportType(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		reportType models.ReportType
		from       time.Time
		to         time.Time
	}{
		{models.ReportTypeDaily, day, day},
		{models.ReportTypeWeekly, day.AddDate(0, 0, -6), day},
		{models.ReportTypeMonthly, day.AddDate(0, 0, -29), day},
		{models.ReportTypeYearly, day.AddDate(0, 0, -364), day},
	}
	for _, tc := range cases {
		from, to, err := Window(tc.reportType, asOf, nil)
		if err != nil {
			t.Fatalf("%s: %v", tc.reportType, err)
		}
		if !from.Equal(tc.from) || !to.Equal(tc.to) {
			t.Fatalf("%s: got %v..%v, want %v..%v", tc.reportType, from, to, tc.from, tc.to)
		}
	}
}

func TestWindowCustom(t *testing.T) {
	custom := &DateRange{
		From: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 20, 23, 0, 0, 0, time.UTC),
	}
	from, to, err := Window(models.ReportTypeCustom, time.Now(), custom)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if !from.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from: got %v", from)
	}
	if !to.Equal(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to: got %v", to)
	}
}

func TestWindowCustomRequiresRange(t *testing.T) {
	if _, _, err := Window(models.ReportTypeCustom, time.Now(), nil); err == nil {
		t.Fatal("expected error for custom window without range")
	}
}

func TestWindowCustomRejectsInvertedRange(t *testing.T) {
	custom := &DateRange{
		From: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, _, err := Window(models.ReportTypeCustom, time.Now(), custom); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestWeeklyWindowExcludesOldRecords(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	from, to, err := Window(models.ReportTypeWeekly, asOf, nil)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	income := record(models.RecordKindIncome, "1000")
	income.Date = asOf.AddDate(0, 0, -2)
	expense := record(models.RecordKindExpense, "400")
	expense.Date = asOf.AddDate(0, 0, -10)

	var inWindow []*models.FinancialRecord
	endOfDay := to.Add(24*time.Hour - time.Second)
	for _, r := range []*models.FinancialRecord{income, expense} {
		if !r.Date.Before(from) && !r.Date.After(endOfDay) {
			inWindow = append(inWindow, r)
		}
	}

	totals, netProfit := Reduce(inWindow)
	if len(inWindow) != 1 || inWindow[0] != income {
		t.Fatalf("expected only the income row in window, got %d rows", len(inWindow))
	}
	if got := totals.Income.StringFixed(2); got != "1000.00" {
		t.Fatalf("income: got %s", got)
	}
	if !totals.Expense.IsZero() {
		t.Fatalf("expense: got %s", totals.Expense)
	}
	if got := netProfit.StringFixed(2); got != "1000.00" {
		t.Fatalf("net profit: got %s", got)
	}
}

func TestSummaryContainsTotals(t *testing.T) {
	result := &AggregationResult{
		Scope:      models.ScopeCompany,
		ScopeTitle: "Acme Holding",
		ReportType: models.ReportTypeMonthly,
		From:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		Totals: TotalsByKind{
			Income:  decimal.RequireFromString("3000"),
			Expense: decimal.RequireFromString("1200"),
		},
		NetProfit:   decimal.RequireFromString("1800"),
		RecordCount: 7,
	}

	summary := result.Summary()
	for _, want := range []string{"Acme Holding", "2025-05-01", "2025-05-31", "Income: 3000.00", "Expense: 1200.00", "Net profit: 1800.00", "Records: 7"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestWindowInvalidType(t *testing.T) {
	if _, _, err := Window(models.ReportType("quarterly"), time.Now(), nil); err == nil {
		t.Fatal("expected error for invalid report type")
	}
}

package reports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *AggregationResult {
	records := []*models.FinancialRecord{
		{
			Title:    "June rent",
			Kind:     models.RecordKindExpense,
			Amount:   decimal.RequireFromString("1500.00"),
			Currency: "TRY",
			Date:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:    "Consulting fee",
			Kind:     models.RecordKindIncome,
			Amount:   decimal.RequireFromString("4200.00"),
			Currency: "TRY",
			Date:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		},
	}
	totals, netProfit := Reduce(records)
	return &AggregationResult{
		Scope:       models.ScopeCompany,
		ScopeId:     7,
		ScopeTitle:  "Acme Holding",
		ReportType:  models.ReportTypeMonthly,
		From:        time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Totals:      totals,
		NetProfit:   netProfit,
		RecordCount: len(records),
		Records:     records,
	}
}

func TestRenderExcel(t *testing.T) {
	ctx := context.Background()
	store := &utils.LocalArtifactStore{Root: t.TempDir()}

	ref, err := RenderExcel(ctx, store, sampleResult())
	if err != nil {
		t.Fatalf("RenderExcel: %v", err)
	}
	if !strings.HasPrefix(ref, "reports/monthly_report_company_7_") || !strings.HasSuffix(ref, ".xlsx") {
		t.Fatalf("unexpected ref %q", ref)
	}

	data, err := store.Read(ctx, ref)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Details" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	scope, err := f.GetCellValue("Summary", "B2")
	if err != nil || scope != "company" {
		t.Fatalf("summary scope cell: %q err %v", scope, err)
	}
	name, err := f.GetCellValue("Summary", "B3")
	if err != nil || name != "Acme Holding" {
		t.Fatalf("summary name cell: %q err %v", name, err)
	}
	net, err := f.GetCellValue("Summary", "B11")
	if err != nil || net != "2700.00" {
		t.Fatalf("summary net profit cell: %q err %v", net, err)
	}

	firstTitle, err := f.GetCellValue("Details", "A2")
	if err != nil || firstTitle != "June rent" {
		t.Fatalf("detail title cell: %q err %v", firstTitle, err)
	}
	rows, err := f.GetRows("Details")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("detail rows: got %d, want header + 2", len(rows))
	}
}

func TestRenderPDF(t *testing.T) {
	ctx := context.Background()
	store := &utils.LocalArtifactStore{Root: t.TempDir()}

	ref, err := RenderPDF(ctx, store, sampleResult())
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("unexpected ref %q", ref)
	}

	data, err := store.Read(ctx, ref)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(data) == 0 || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("artifact is not a PDF (%d bytes)", len(data))
	}
}

func TestRenderPDFTruncatesDetailRows(t *testing.T) {
	result := sampleResult()
	for i := 0; i < 60; i++ {
		result.Records = append(result.Records, record(models.RecordKindIncome, "10"))
	}
	result.RecordCount = len(result.Records)

	store := &utils.LocalArtifactStore{Root: t.TempDir()}
	if _, err := RenderPDF(context.Background(), store, result); err != nil {
		t.Fatalf("RenderPDF with many rows: %v", err)
	}
}

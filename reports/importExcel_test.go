package reports

import (
	"context"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/xuri/excelize/v2"
)

func TestCheckHeadings(t *testing.T) {
	valid := []string{"Title", "kind", "AMOUNT", "currency", "date", "description"}
	hasTax, err := checkHeadings(valid)
	if err != nil {
		t.Fatalf("checkHeadings: %v", err)
	}
	if hasTax {
		t.Fatal("expected no tax column")
	}

	hasTax, err = checkHeadings(append(valid, "Company_Tax_Number"))
	if err != nil {
		t.Fatalf("checkHeadings with tax column: %v", err)
	}
	if !hasTax {
		t.Fatal("expected tax column to be detected")
	}

	if _, err := checkHeadings([]string{"title", "kind"}); err == nil {
		t.Fatal("expected error for short heading row")
	}
	if _, err := checkHeadings([]string{"title", "type", "amount", "currency", "date", "description"}); err == nil {
		t.Fatal("expected error for wrong heading name")
	}
	if _, err := checkHeadings(append(valid, "tax_no")); err == nil {
		t.Fatal("expected error for unknown extra heading")
	}
}

func importWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func swapCreateImportRecord(t *testing.T, fn func(context.Context, *models.NewFinancialRecord) (*models.FinancialRecord, error)) {
	t.Helper()
	prev := createImportRecord
	createImportRecord = fn
	t.Cleanup(func() { createImportRecord = prev })
}

func swapResolveImportCompany(t *testing.T, fn func(context.Context, string) (int, error)) {
	t.Helper()
	prev := resolveImportCompany
	resolveImportCompany = fn
	t.Cleanup(func() { resolveImportCompany = prev })
}

func TestImportCollectsRowErrorsAndContinues(t *testing.T) {
	var created []*models.NewFinancialRecord
	swapCreateImportRecord(t, func(_ context.Context, input *models.NewFinancialRecord) (*models.FinancialRecord, error) {
		created = append(created, input)
		return &models.FinancialRecord{}, nil
	})

	data := importWorkbook(t, [][]string{
		importHeadings,
		{"Sale", "income", "100", "TRY", "2025-06-01", ""},
		{"Broken", "income", "ten", "TRY", "2025-06-01", ""},
		{"Rent", "expense", "50", "TRY", "2025-06-02", ""},
	})

	result, err := ImportFinancialRecords(context.Background(), data)
	if err != nil {
		t.Fatalf("ImportFinancialRecords: %v", err)
	}
	if result.TotalRows != 3 {
		t.Fatalf("total rows: got %d", result.TotalRows)
	}
	if result.ImportedCount != 2 {
		t.Fatalf("imported count: got %d", result.ImportedCount)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "row 3") {
		t.Fatalf("errors: got %v", result.Errors)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 created records, got %d", len(created))
	}
}

func TestImportLinksCompanyByTaxNumber(t *testing.T) {
	var created []*models.NewFinancialRecord
	swapCreateImportRecord(t, func(_ context.Context, input *models.NewFinancialRecord) (*models.FinancialRecord, error) {
		created = append(created, input)
		return &models.FinancialRecord{}, nil
	})
	swapResolveImportCompany(t, func(_ context.Context, taxNumber string) (int, error) {
		if taxNumber == "1234567890" {
			return 42, nil
		}
		return 0, utils.ErrorRecordNotFound
	})

	headings := append(append([]string{}, importHeadings...), importTaxHeading)
	data := importWorkbook(t, [][]string{
		headings,
		{"Sale", "income", "100", "TRY", "2025-06-01", "", "1234567890"},
		{"Other sale", "income", "200", "TRY", "2025-06-01", "", "9999999999"},
		{"Unlinked", "income", "300", "TRY", "2025-06-01", "", ""},
	})

	result, err := ImportFinancialRecords(context.Background(), data)
	if err != nil {
		t.Fatalf("ImportFinancialRecords: %v", err)
	}
	if result.ImportedCount != 3 || len(result.Errors) != 0 {
		t.Fatalf("expected 3 clean imports, got %d with errors %v", result.ImportedCount, result.Errors)
	}

	if created[0].RelatedCompanyId == nil || *created[0].RelatedCompanyId != 42 {
		t.Fatalf("row 2: expected company 42, got %v", created[0].RelatedCompanyId)
	}
	if created[1].RelatedCompanyId != nil {
		t.Fatal("row 3: unresolved tax number must import unlinked")
	}
	if created[2].RelatedCompanyId != nil {
		t.Fatal("row 4: blank tax number must import unlinked")
	}
}

func TestParseImportRowValid(t *testing.T) {
	input, err := parseImportRow([]string{"Office rent", "Expense", "1250.50", "try", "2025-06-01", "June rent"})
	if err != nil {
		t.Fatalf("parseImportRow: %v", err)
	}
	if input.Title != "Office rent" {
		t.Fatalf("title: %q", input.Title)
	}
	if string(input.Kind) != "expense" {
		t.Fatalf("kind: %q", input.Kind)
	}
	if input.Amount.StringFixed(2) != "1250.50" {
		t.Fatalf("amount: %s", input.Amount)
	}
	if input.Currency != "TRY" {
		t.Fatalf("currency: %q", input.Currency)
	}
	if input.Date.Format("2006-01-02") != "2025-06-01" {
		t.Fatalf("date: %v", input.Date)
	}
	if input.Description != "June rent" {
		t.Fatalf("description: %q", input.Description)
	}
}

func TestParseImportRowDefaultsCurrency(t *testing.T) {
	input, err := parseImportRow([]string{"Sale", "income", "10", "", "2025-06-01"})
	if err != nil {
		t.Fatalf("parseImportRow: %v", err)
	}
	if input.Currency != "TRY" {
		t.Fatalf("currency: %q", input.Currency)
	}
}

func TestParseImportRowTurkishDateFormat(t *testing.T) {
	input, err := parseImportRow([]string{"Sale", "income", "10", "TRY", "01.06.2025"})
	if err != nil {
		t.Fatalf("parseImportRow: %v", err)
	}
	if input.Date.Format("2006-01-02") != "2025-06-01" {
		t.Fatalf("date: %v", input.Date)
	}
}

func TestParseImportRowErrors(t *testing.T) {
	cases := []struct {
		name  string
		cells []string
	}{
		{"missing title", []string{"", "income", "10", "TRY", "2025-06-01"}},
		{"unknown kind", []string{"Sale", "revenue", "10", "TRY", "2025-06-01"}},
		{"bad amount", []string{"Sale", "income", "ten", "TRY", "2025-06-01"}},
		{"negative amount", []string{"Sale", "income", "-5", "TRY", "2025-06-01"}},
		{"bad date", []string{"Sale", "income", "10", "TRY", "June 1st"}},
		{"bad currency", []string{"Sale", "income", "10", "TURKISHLIRA", "2025-06-01"}},
	}
	for _, tc := range cases {
		if _, err := parseImportRow(tc.cells); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestRowIsBlank(t *testing.T) {
	if !rowIsBlank([]string{"", "  ", ""}) {
		t.Fatal("expected blank")
	}
	if rowIsBlank([]string{"", "x"}) {
		t.Fatal("expected non-blank")
	}
}

package reports

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportResult reports a spreadsheet import row by row. A failed row never
// aborts the run; its error is collected and the rest continue.
type ImportResult struct {
	ImportedCount int      `json:"imported_count"`
	TotalRows     int      `json:"total_rows"`
	Errors        []string `json:"errors"`
}

var importHeadings = []string{"title", "kind", "amount", "currency", "date", "description"}

// Optional seventh column: rows carrying a tax number are linked to the
// matching company in the caller's business; unresolved numbers are skipped
// and the row imports unlinked.
const importTaxHeading = "company_tax_number"

var rowValidator = validator.New()

// swapped in tests
var (
	createImportRecord   = models.CreateFinancialRecord
	resolveImportCompany = models.CompanyIdByTaxNumber
)

type importRow struct {
	Title    string `validate:"required,max=255"`
	Kind     string `validate:"required,oneof=income expense turnover profit_share"`
	Amount   string `validate:"required"`
	Currency string `validate:"omitempty,len=3"`
	Date     string `validate:"required"`
}

// ImportFinancialRecords reads an .xlsx upload and creates one financial
// record per data row. The first sheet is used; row 1 must be the heading
// row title/kind/amount/currency/date/description.
func ImportFinancialRecords(ctx context.Context, data []byte) (*ImportResult, error) {

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}
	hasTaxColumn, err := checkHeadings(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	for i, cells := range rows[1:] {
		rowNo := i + 2
		if rowIsBlank(cells) {
			continue
		}
		result.TotalRows++

		input, err := parseImportRow(cells)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNo, err))
			continue
		}
		if hasTaxColumn {
			if taxNumber := strings.TrimSpace(cellAt(cells, 6)); taxNumber != "" {
				if companyId, err := resolveImportCompany(ctx, taxNumber); err == nil {
					input.RelatedCompanyId = &companyId
				}
			}
		}
		if _, err := createImportRecord(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNo, err))
			continue
		}
		result.ImportedCount++
	}
	return result, nil
}

func checkHeadings(headerRow []string) (bool, error) {
	if len(headerRow) < len(importHeadings) {
		return false, fmt.Errorf("heading row must contain %s", strings.Join(importHeadings, ", "))
	}
	for i, want := range importHeadings {
		got := strings.ToLower(strings.TrimSpace(headerRow[i]))
		if got != want {
			return false, fmt.Errorf("heading column %d must be %q, got %q", i+1, want, headerRow[i])
		}
	}
	extra := strings.ToLower(strings.TrimSpace(cellAt(headerRow, len(importHeadings))))
	if extra == "" {
		return false, nil
	}
	if extra != importTaxHeading {
		return false, fmt.Errorf("heading column %d must be %q, got %q", len(importHeadings)+1, importTaxHeading, extra)
	}
	return true, nil
}

func parseImportRow(cells []string) (*models.NewFinancialRecord, error) {
	row := importRow{
		Title:    strings.TrimSpace(cellAt(cells, 0)),
		Kind:     strings.ToLower(strings.TrimSpace(cellAt(cells, 1))),
		Amount:   strings.TrimSpace(cellAt(cells, 2)),
		Currency: strings.ToUpper(strings.TrimSpace(cellAt(cells, 3))),
		Date:     strings.TrimSpace(cellAt(cells, 4)),
	}

	if err := rowValidator.Struct(&row); err != nil {
		fieldErrors := utils.ProcessValidationErrors(err)
		parts := make([]string, 0, len(fieldErrors))
		for field, tag := range fieldErrors {
			parts = append(parts, fmt.Sprintf("%s (%s)", strings.ToLower(field), tag))
		}
		return nil, fmt.Errorf("invalid fields: %s", strings.Join(parts, ", "))
	}

	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", row.Amount)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}

	date, err := parseImportDate(row.Date)
	if err != nil {
		return nil, err
	}

	currency := row.Currency
	if currency == "" {
		currency = "TRY"
	}

	return &models.NewFinancialRecord{
		Title:       row.Title,
		Kind:        models.RecordKind(row.Kind),
		Amount:      amount,
		Currency:    currency,
		Date:        date,
		Description: strings.TrimSpace(cellAt(cells, 5)),
	}, nil
}

func parseImportDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02.01.2006", "02/01/2006"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func rowIsBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Details"

	headerFillColor = "366092"
	maxColumnWidth  = 50
)

var detailHeadings = []string{"Title", "Kind", "Amount", "Currency", "Date", "Description"}

// RenderExcel writes the aggregation result as a two-sheet workbook and
// stores it, returning the artifact reference.
func RenderExcel(ctx context.Context, store utils.ArtifactStore, result *AggregationResult) (string, error) {

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", utils.RenderFailed("excel", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return "", utils.RenderFailed("excel", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
	})
	if err != nil {
		return "", utils.RenderFailed("excel", err)
	}

	writeSummarySheet(f, headerStyle, result)
	writeDetailSheet(f, headerStyle, result)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", utils.RenderFailed("excel", err)
	}

	hint := "reports/" + utils.GenerateTimestampedFilename(reportFilePrefix(result), "xlsx")
	ref, err := store.Write(ctx, hint, buf.Bytes(), utils.ArtifactContentType(".xlsx"))
	if err != nil {
		return "", utils.Transient(err)
	}
	return ref, nil
}

func writeSummarySheet(f *excelize.File, headerStyle int, result *AggregationResult) {
	rows := [][2]interface{}{
		{"Scope", string(result.Scope)},
		{"Name", result.ScopeTitle},
		{"Report Type", string(result.ReportType)},
		{"Period Start", result.From.Format("2006-01-02")},
		{"Period End", result.To.Format("2006-01-02")},
		{"Total Income", result.Totals.Income.StringFixed(2)},
		{"Total Expense", result.Totals.Expense.StringFixed(2)},
		{"Total Turnover", result.Totals.Turnover.StringFixed(2)},
		{"Total Profit Share", result.Totals.ProfitShare.StringFixed(2)},
		{"Net Profit", result.NetProfit.StringFixed(2)},
		{"Record Count", result.RecordCount},
	}

	f.SetCellValue(summarySheet, "A1", "Field")
	f.SetCellValue(summarySheet, "B1", "Value")
	f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)

	widthA, widthB := len("Field"), len("Value")
	for i, row := range rows {
		f.SetCellValue(summarySheet, "A"+fmt.Sprint(i+2), row[0])
		f.SetCellValue(summarySheet, "B"+fmt.Sprint(i+2), row[1])
		widthA = maxInt(widthA, len(fmt.Sprint(row[0])))
		widthB = maxInt(widthB, len(fmt.Sprint(row[1])))
	}
	f.SetColWidth(summarySheet, "A", "A", fitColumnWidth(widthA))
	f.SetColWidth(summarySheet, "B", "B", fitColumnWidth(widthB))
}

func writeDetailSheet(f *excelize.File, headerStyle int, result *AggregationResult) {
	widths := make([]int, len(detailHeadings))
	col := 'A'
	for i, heading := range detailHeadings {
		f.SetCellValue(detailSheet, string(col)+"1", heading)
		widths[i] = len(heading)
		col++
	}
	lastCol := string(rune('A' + len(detailHeadings) - 1))
	f.SetCellStyle(detailSheet, "A1", lastCol+"1", headerStyle)

	for i, record := range result.Records {
		values := []interface{}{
			record.Title,
			string(record.Kind),
			record.Amount.StringFixed(2),
			record.Currency,
			record.Date.Format("2006-01-02"),
			record.Description,
		}
		col := 'A'
		for j, value := range values {
			f.SetCellValue(detailSheet, string(col)+fmt.Sprint(i+2), value)
			widths[j] = maxInt(widths[j], len(fmt.Sprint(value)))
			col++
		}
	}

	col = 'A'
	for _, width := range widths {
		f.SetColWidth(detailSheet, string(col), string(col), fitColumnWidth(width))
		col++
	}
}

// fitColumnWidth pads the content width a little and caps it so one long
// description cannot blow up the sheet.
func fitColumnWidth(contentLen int) float64 {
	width := contentLen + 2
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	return float64(width)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

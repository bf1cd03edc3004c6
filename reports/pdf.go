package reports

import (
	"bytes"
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/go-pdf/fpdf"
)

// Only the first rows fit a readable PDF; the spreadsheet carries the full
// detail.
const pdfMaxDetailRows = 50

// RenderPDF writes a compact summary document and stores it, returning the
// artifact reference.
func RenderPDF(ctx context.Context, store utils.ArtifactStore, result *AggregationResult) (string, error) {

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s Report: %s", titleCase(string(result.ReportType)), result.ScopeTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s", result.From.Format("2006-01-02"), result.To.Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	summaryRows := [][2]string{
		{"Total Income", result.Totals.Income.StringFixed(2)},
		{"Total Expense", result.Totals.Expense.StringFixed(2)},
		{"Total Turnover", result.Totals.Turnover.StringFixed(2)},
		{"Total Profit Share", result.Totals.ProfitShare.StringFixed(2)},
		{"Net Profit", result.NetProfit.StringFixed(2)},
		{"Record Count", fmt.Sprint(result.RecordCount)},
	}
	for _, row := range summaryRows {
		pdf.CellFormat(60, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Records", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(0x36, 0x60, 0x92)
	pdf.SetTextColor(255, 255, 255)
	colWidths := []float64{70, 28, 30, 30, 28}
	for i, heading := range []string{"Title", "Kind", "Amount", "Date", "Currency"} {
		pdf.CellFormat(colWidths[i], 7, heading, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	shown := result.Records
	if len(shown) > pdfMaxDetailRows {
		shown = shown[:pdfMaxDetailRows]
	}
	for _, record := range shown {
		pdf.CellFormat(colWidths[0], 6, truncateText(record.Title, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 6, string(record.Kind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 6, record.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 6, record.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[4], 6, record.Currency, "1", 1, "L", false, 0, "")
	}
	if len(result.Records) > pdfMaxDetailRows {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("... and %d more records (see spreadsheet export)", len(result.Records)-pdfMaxDetailRows), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", utils.RenderFailed("pdf", err)
	}

	hint := "reports/" + utils.GenerateTimestampedFilename(reportFilePrefix(result), "pdf")
	ref, err := store.Write(ctx, hint, buf.Bytes(), utils.ArtifactContentType(".pdf"))
	if err != nil {
		return "", utils.Transient(err)
	}
	return ref, nil
}

func reportFilePrefix(result *AggregationResult) string {
	return fmt.Sprintf("%s_report_%s_%d", string(result.ReportType), string(result.Scope), result.ScopeId)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

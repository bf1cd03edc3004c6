package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/reports"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

const (
	KindGenerateReport      = "generate_report"
	KindGenerateContractDoc = "generate_contract_document"
	KindImportRecords       = "import_financial_records"

	// ImportKindFinancialRecords is the only supported spreadsheet layout.
	ImportKindFinancialRecords = "financial_records"
)

var ErrUnknownImportKind = errors.New("unknown import kind")

// SubmitGenerateReport queues aggregation and rendering for an already
// created report row. The artifact reference lands on the report when the
// job succeeds.
func SubmitGenerateReport(ctx context.Context, executor *Executor, report *models.Report, format string) (string, error) {
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "pdf" {
		return "", fmt.Errorf("unsupported report format %q", format)
	}

	reportId := report.ID
	businessId := report.BusinessId

	scope, scopeId, err := reportScope(report)
	if err != nil {
		return "", err
	}

	var custom *reports.DateRange
	if report.ReportType == models.ReportTypeCustom && report.DateFrom != nil && report.DateTo != nil {
		custom = &reports.DateRange{From: *report.DateFrom, To: *report.DateTo}
	}
	reportType := report.ReportType

	return executor.Submit(ctx, KindGenerateReport, func(taskCtx context.Context) (interface{}, error) {
		result, err := reports.Aggregate(taskCtx, scope, scopeId, reportType, time.Now(), custom)
		if err != nil {
			return nil, err
		}

		store := utils.GetArtifactStore()
		var ref string
		if format == "pdf" {
			ref, err = reports.RenderPDF(taskCtx, store, result)
		} else {
			ref, err = reports.RenderExcel(taskCtx, store, result)
		}
		if err != nil {
			return nil, err
		}

		if err := models.UpdateReportArtifact(taskCtx, businessId, reportId, ref, result.Summary()); err != nil {
			return nil, utils.Transient(err)
		}

		return map[string]interface{}{
			"report_id":    reportId,
			"file":         ref,
			"record_count": result.RecordCount,
			"net_profit":   result.NetProfit.StringFixed(2),
		}, nil
	})
}

// SubmitGenerateContractDocument queues document rendering for a contract.
// Rendering failures never retry: the job succeeds with a structured
// failure result so the client sees what went wrong on the first poll.
func SubmitGenerateContractDocument(ctx context.Context, executor *Executor, contract *models.Contract) (string, error) {
	contractId := contract.ID
	businessId := contract.BusinessId

	return executor.Submit(ctx, KindGenerateContractDoc, func(taskCtx context.Context) (interface{}, error) {
		fresh, err := models.GetContract(taskCtx, businessId, contractId)
		if err != nil {
			return map[string]interface{}{"success": false, "error": err.Error()}, nil
		}

		ref, err := reports.RenderContractDocument(taskCtx, utils.GetArtifactStore(), fresh, time.Now())
		if err != nil {
			return map[string]interface{}{"success": false, "error": err.Error()}, nil
		}

		if err := models.UpdateContractFile(taskCtx, businessId, contractId, ref); err != nil {
			return map[string]interface{}{"success": false, "error": err.Error()}, nil
		}

		return map[string]interface{}{"success": true, "file": ref}, nil
	})
}

// SubmitImportRecords queues a spreadsheet import. The upload is staged in
// artifact storage first so the task can re-read it on retry. An empty kind
// defaults to financial records; anything else is rejected before queueing.
func SubmitImportRecords(ctx context.Context, executor *Executor, uploadRef, importKind string) (string, error) {
	if importKind == "" {
		importKind = ImportKindFinancialRecords
	}
	if importKind != ImportKindFinancialRecords {
		return "", fmt.Errorf("%w %q", ErrUnknownImportKind, importKind)
	}

	return executor.Submit(ctx, KindImportRecords, func(taskCtx context.Context) (interface{}, error) {
		store := utils.GetArtifactStore()
		data, err := store.Read(taskCtx, uploadRef)
		if err != nil {
			return nil, utils.Transient(err)
		}
		return reports.ImportFinancialRecords(taskCtx, data)
	})
}

func reportScope(report *models.Report) (models.ScopeKind, int, error) {
	input := models.NewReport{
		RelatedCompanyId: report.RelatedCompanyId,
		RelatedBrandId:   report.RelatedBrandId,
		RelatedBranchId:  report.RelatedBranchId,
		RelatedPersonId:  report.RelatedPersonId,
	}
	return input.Scope()
}

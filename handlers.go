package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/records_backend/jobs"
	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/gin-gonic/gin"
)

const maxImportUploadBytes = 10 << 20

func registerRoutes(api *gin.RouterGroup, executor *jobs.Executor) {
	api.POST("/companies", createCompanyHandler)
	api.POST("/brands", createBrandHandler)
	api.POST("/branches", createBranchHandler)
	api.POST("/persons", createPersonHandler)
	api.POST("/financial-records", createFinancialRecordHandler)
	api.POST("/contracts", createContractHandler)
	api.POST("/contracts/:id/document", generateContractDocumentHandler(executor))
	api.POST("/promissory-notes", createPromissoryNoteHandler)
	api.POST("/reports", createReportHandler(executor))
	api.GET("/reports/:id", getReportHandler)
	api.GET("/reports/:id/download", downloadReportHandler)
	api.POST("/imports", importRecordsHandler(executor))
	api.POST("/jobs", submitJobHandler(executor))
	api.GET("/jobs/:id", pollJobHandler(executor))
}

func createCompanyHandler(c *gin.Context) {
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	company, err := models.CreateCompany(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, company)
}

func createBrandHandler(c *gin.Context) {
	var input models.NewBrand
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	brand, err := models.CreateBrand(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func createBranchHandler(c *gin.Context) {
	var input models.NewBranch
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	branch, err := models.CreateBranch(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func createPersonHandler(c *gin.Context) {
	var input models.NewPerson
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	person, err := models.CreatePerson(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, person)
}

func createFinancialRecordHandler(c *gin.Context) {
	var input models.NewFinancialRecord
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := models.CreateFinancialRecord(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func createContractHandler(c *gin.Context) {
	var input models.NewContract
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract, err := models.CreateContract(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func createPromissoryNoteHandler(c *gin.Context) {
	var input models.NewPromissoryNote
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := models.CreatePromissoryNote(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, note)
}

// generateContractDocumentHandler queues document rendering for an existing
// contract and returns the job id to poll.
func generateContractDocumentHandler(executor *jobs.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "jobs.submit_contract_document")
		defer span.End()

		contractId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
			return
		}
		businessId, _ := utils.GetBusinessIdFromContext(ctx)
		contract, err := models.GetContract(ctx, businessId, contractId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "contract not found"})
			return
		}

		jobID, err := jobs.SubmitGenerateContractDocument(ctx, executor, contract)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	}
}

type newReportRequest struct {
	models.NewReport
	Format string `json:"format"`
}

// createReportHandler stores the report row synchronously, then queues the
// aggregation and rendering work.
func createReportHandler(executor *jobs.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "jobs.submit_report")
		defer span.End()

		var input newReportRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		report, err := models.CreateReport(ctx, &input.NewReport)
		if err != nil {
			status := http.StatusBadRequest
			if err == utils.ErrorScopeNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		jobID, err := jobs.SubmitGenerateReport(ctx, executor, report, input.Format)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"report": report, "job_id": jobID})
	}
}

func getReportHandler(c *gin.Context) {
	ctx := c.Request.Context()

	reportId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	report, err := models.GetReportCached(ctx, businessId, reportId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func downloadReportHandler(c *gin.Context) {
	ctx := c.Request.Context()

	reportId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	report, err := models.GetReport(ctx, businessId, reportId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if report.File == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "report is not generated yet"})
		return
	}

	data, err := utils.GetArtifactStore().Read(ctx, report.File)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}

	filename := report.File
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i:]
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, utils.ArtifactContentType(ext), data)
}

// importRecordsHandler stages the uploaded spreadsheet in artifact storage
// and queues the parse-and-create job.
func importRecordsHandler(executor *jobs.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "jobs.submit_import")
		defer span.End()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
			return
		}
		if fileHeader.Size > maxImportUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 10MB limit"})
			return
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx files are supported"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hint := "imports/" + utils.GenerateTimestampedFilename("upload", "xlsx")
		ref, err := utils.GetArtifactStore().Write(ctx, hint, data, utils.ArtifactContentType(".xlsx"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot stage upload"})
			return
		}

		jobID, err := jobs.SubmitImportRecords(ctx, executor, ref, c.PostForm("kind"))
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, jobs.ErrUnknownImportKind) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	}
}

type submitJobRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Params struct {
		ReportId   int    `json:"report_id"`
		Format     string `json:"format"`
		ContractId int    `json:"contract_id"`
		File       string `json:"file"`
		ImportKind string `json:"import_kind"`
	} `json:"params"`
}

// submitJobHandler queues a task by kind for callers that already hold the
// target resource. Resource-scoped routes cover the common flows; this is
// the generic entry point.
func submitJobHandler(executor *jobs.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "jobs.submit")
		defer span.End()

		var input submitJobRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		businessId, _ := utils.GetBusinessIdFromContext(ctx)

		var jobID string
		var err error
		switch input.Kind {
		case jobs.KindGenerateReport:
			var report *models.Report
			report, err = models.GetReport(ctx, businessId, input.Params.ReportId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
				return
			}
			jobID, err = jobs.SubmitGenerateReport(ctx, executor, report, input.Params.Format)
		case jobs.KindGenerateContractDoc:
			var contract *models.Contract
			contract, err = models.GetContract(ctx, businessId, input.Params.ContractId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "contract not found"})
				return
			}
			jobID, err = jobs.SubmitGenerateContractDocument(ctx, executor, contract)
		case jobs.KindImportRecords:
			if input.Params.File == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
				return
			}
			jobID, err = jobs.SubmitImportRecords(ctx, executor, input.Params.File, input.Params.ImportKind)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job kind"})
			return
		}
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, jobs.ErrUnknownImportKind) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	}
}

func pollJobHandler(executor *jobs.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := executor.Poll(c.Request.Context(), c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

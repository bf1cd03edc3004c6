package schedule

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"github.com/shopspring/decimal"
)

func TestGroupByBusinessPartitionsTenants(t *testing.T) {
	contracts := []*models.Contract{
		{BusinessId: "biz-a", ContractNumber: "A-1"},
		{BusinessId: "biz-b", ContractNumber: "B-1"},
		{BusinessId: "biz-a", ContractNumber: "A-2"},
	}

	groups := groupByBusiness(contracts, func(c *models.Contract) string { return c.BusinessId })

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups["biz-a"]) != 2 || len(groups["biz-b"]) != 1 {
		t.Fatalf("wrong partition sizes: a=%d b=%d", len(groups["biz-a"]), len(groups["biz-b"]))
	}
	for businessId, group := range groups {
		for _, contract := range group {
			if contract.BusinessId != businessId {
				t.Fatalf("contract %s leaked into group %s", contract.ContractNumber, businessId)
			}
		}
	}
}

func TestContractDigestBodyOnlyCarriesGivenRows(t *testing.T) {
	end := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	body := contractDigestBody([]*models.Contract{
		{Title: "Office lease", ContractNumber: "C-100", EndDate: end, BusinessId: "biz-a"},
	})

	if !strings.Contains(body, "Office lease") || !strings.Contains(body, "C-100") {
		t.Fatalf("body missing contract line:\n%s", body)
	}
	if !strings.Contains(body, "2025-07-10") {
		t.Fatalf("body missing end date:\n%s", body)
	}
}

func TestNoteDigestBodyTotalsAndTruncates(t *testing.T) {
	var notes []*models.PromissoryNote
	for i := 0; i < digestListLimit+3; i++ {
		notes = append(notes, &models.PromissoryNote{
			NoteNumber: "N-" + strings.Repeat("x", i+1),
			Amount:     decimal.RequireFromString("100"),
			Currency:   "TRY",
			DueDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	body := noteDigestBody(notes)

	if !strings.Contains(body, "Total outstanding: 1300.00") {
		t.Fatalf("wrong total:\n%s", body)
	}
	if !strings.Contains(body, "... and 3 more") {
		t.Fatalf("expected truncation marker:\n%s", body)
	}
}

package models

import "fmt"

/* Financial record kinds */

type RecordKind string

const (
	RecordKindIncome      RecordKind = "income"
	RecordKindExpense     RecordKind = "expense"
	RecordKindTurnover    RecordKind = "turnover"
	RecordKindProfitShare RecordKind = "profit_share"
)

func (k RecordKind) Valid() bool {
	switch k {
	case RecordKindIncome, RecordKindExpense, RecordKindTurnover, RecordKindProfitShare:
		return true
	}
	return false
}

/* Report types */

type ReportType string

const (
	ReportTypeDaily   ReportType = "daily"
	ReportTypeWeekly  ReportType = "weekly"
	ReportTypeMonthly ReportType = "monthly"
	ReportTypeYearly  ReportType = "yearly"
	ReportTypeCustom  ReportType = "custom"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeDaily, ReportTypeWeekly, ReportTypeMonthly, ReportTypeYearly, ReportTypeCustom:
		return true
	}
	return false
}

/* Scope kinds */

// ScopeKind identifies one level of the Company ⊃ Brand ⊃ Branch ⊃ Person
// hierarchy. Each kind carries its FinancialRecord relation column so callers
// never probe attributes dynamically.
type ScopeKind string

const (
	ScopeCompany ScopeKind = "company"
	ScopeBrand   ScopeKind = "brand"
	ScopeBranch  ScopeKind = "branch"
	ScopePerson  ScopeKind = "person"
)

func (s ScopeKind) Valid() bool {
	switch s {
	case ScopeCompany, ScopeBrand, ScopeBranch, ScopePerson:
		return true
	}
	return false
}

// RelationColumn returns the FinancialRecord column that links a record to
// this scope level. The switch is exhaustive over valid kinds.
func (s ScopeKind) RelationColumn() (string, error) {
	switch s {
	case ScopeCompany:
		return "related_company_id", nil
	case ScopeBrand:
		return "related_brand_id", nil
	case ScopeBranch:
		return "related_branch_id", nil
	case ScopePerson:
		return "related_person_id", nil
	default:
		return "", fmt.Errorf("invalid scope kind %q", string(s))
	}
}

/* Contract lifecycle */

type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "draft"
	ContractStatusActive     ContractStatus = "active"
	ContractStatusExpired    ContractStatus = "expired"
	ContractStatusTerminated ContractStatus = "terminated"
)

/* Promissory note lifecycle */

type NotePaymentStatus string

const (
	NoteStatusPending NotePaymentStatus = "pending"
	NoteStatusPaid    NotePaymentStatus = "paid"
	NoteStatusOverdue NotePaymentStatus = "overdue"
)

/* Users */

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

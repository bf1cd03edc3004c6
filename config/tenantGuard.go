package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/records_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantGuardPlugin scopes queries/updates/deletes to the context business_id
// whenever the statement's model carries a business_id column. Raw SQL is not
// covered; those call sites must filter on business_id themselves.
//
// Scheduler sweeps run cross-tenant and bypass the guard via
// appctx.ContextKeySkipTenantScope.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_guard:update", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenant_guard:delete", tenantGuardCallback); err != nil {
		return err
	}
	return nil
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	ctx := db.Statement.Context
	if tenantScopeBypassed(ctx) {
		return
	}
	businessID, _ := appctx.GetString(ctx, appctx.ContextKeyBusinessId)
	if businessID == "" {
		return
	}
	if db.Statement.Schema == nil || !schemaHasBusinessID(db.Statement) {
		return
	}
	if whereMentionsBusinessID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "business_id"},
				Value:  businessID,
			},
		},
	})
}

func tenantScopeBypassed(ctx context.Context) bool {
	if v, ok := appctx.GetBool(ctx, appctx.ContextKeySkipTenantScope); ok && v {
		return true
	}
	if v, ok := appctx.GetBool(ctx, appctx.ContextKeyIsAdmin); ok && v {
		return true
	}
	return false
}

func schemaHasBusinessID(stmt *gorm.Statement) bool {
	for _, f := range stmt.Schema.Fields {
		if strings.EqualFold(f.DBName, "business_id") {
			return true
		}
	}
	return false
}

func whereMentionsBusinessID(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprMentionsBusinessID(e) {
			return true
		}
	}
	return false
}

func exprMentionsBusinessID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return columnIsBusinessID(v.Column)
	case clause.IN:
		return columnIsBusinessID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprMentionsBusinessID(x) {
				return true
			}
		}
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprMentionsBusinessID(x) {
				return true
			}
		}
	case clause.Expr:
		// Best-effort for raw conditions.
		return strings.Contains(strings.ToLower(v.SQL), "business_id")
	}
	return false
}

func columnIsBusinessID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "business_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "business_id")
	}
	return false
}

package models

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// dryRunSession builds SQL without touching a server, so the sweep filters
// can be checked without a MySQL fixture.
func dryRunSession(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "records:records@tcp(127.0.0.1:3306)/records?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		t.Fatalf("open dry-run session: %v", err)
	}
	return db
}

// The sweep only matches pending notes, so a note flipped to overdue by one
// run can never match a second run: the transition happens exactly once.
func TestOverdueNoteSweepFilterShape(t *testing.T) {
	today := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	tx := dryRunSession(t).Model(&PromissoryNote{}).
		Scopes(overdueNoteScope(today)).
		Find(&[]PromissoryNote{})
	if tx.Error != nil {
		t.Fatalf("build statement: %v", tx.Error)
	}

	sql := tx.Statement.SQL.String()
	if !strings.Contains(sql, "payment_status = ?") {
		t.Fatalf("filter must match on payment_status, got: %s", sql)
	}
	if !strings.Contains(sql, "due_date < ?") {
		t.Fatalf("filter must match on due_date, got: %s", sql)
	}

	var sawPending, sawCutoff bool
	wantCutoff := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	for _, v := range tx.Statement.Vars {
		if v == NoteStatusPending {
			sawPending = true
		}
		if v == NoteStatusOverdue {
			t.Fatal("filter must not match already-swept rows")
		}
		if ts, ok := v.(time.Time); ok && ts.Equal(wantCutoff) {
			sawCutoff = true
		}
	}
	if !sawPending {
		t.Fatalf("filter must bind the pending status, vars: %v", tx.Statement.Vars)
	}
	if !sawCutoff {
		t.Fatalf("cutoff must be truncated to the day, vars: %v", tx.Statement.Vars)
	}
}

func TestExpiredContractSweepFilterShape(t *testing.T) {
	today := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	tx := dryRunSession(t).Model(&Contract{}).
		Scopes(expiredContractScope(today)).
		Find(&[]Contract{})
	if tx.Error != nil {
		t.Fatalf("build statement: %v", tx.Error)
	}

	sql := tx.Statement.SQL.String()
	if !strings.Contains(sql, "status = ?") {
		t.Fatalf("filter must match on status, got: %s", sql)
	}
	if !strings.Contains(sql, "end_date < ?") {
		t.Fatalf("filter must match on end_date, got: %s", sql)
	}

	var sawActive bool
	for _, v := range tx.Statement.Vars {
		if v == ContractStatusActive {
			sawActive = true
		}
		if v == ContractStatusExpired {
			t.Fatal("filter must not match already-swept rows")
		}
	}
	if !sawActive {
		t.Fatalf("filter must bind the active status, vars: %v", tx.Statement.Vars)
	}
}

package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockingUpdate applies SELECT ... FOR UPDATE on dialects that support row
// locks. SQLite (used by the test suite) locks at database level already, so
// the clause is skipped there.
func LockingUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Package models holds the gorm entities persisted by moneyflow.
package models

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{&Account{}, &Category{}, &Transaction{}, &AuditLog{}}
}

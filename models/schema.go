package models

import "gorm.io/gorm"

// All lists every persisted model, parents before children.
func All() []any {
	return []any{&Project{}, &ProjectTag{}, &Skill{}}
}

// EnsureSchema creates missing tables and indexes. It never drops columns.
func EnsureSchema(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

package db

import (
	"memopad/internal/memo"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&memo.Memo{}); err != nil {
		return err
	}

	// List queries are always user-scoped and reverse-chronological.
	if err := gdb.Exec(`create index if not exists idx_memos_user_created on memos(user_id, created_at desc);`).Error; err != nil {
		return err
	}

	// Substring search. Needs the pg_trgm extension; ILIKE still works
	// without the index, just slower.
	_ = gdb.Exec(`create index if not exists idx_memos_message_trgm on memos using gin (message gin_trgm_ops);`).Error

	return nil
}

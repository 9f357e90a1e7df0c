package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Page assets
		&types.ImageAsset{},
		&types.PdfAsset{},
		&types.UploadIntent{},

		// Page text
		&types.PageContent{},

		// Instructors
		&types.Instructor{},
	)
}

func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_instructor_page_created ON instructor(page, created_at, id);`).Error; err != nil {
		return fmt.Errorf("create idx_instructor_page_created: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_upload_intent_created ON upload_intent(created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_upload_intent_created: %w", err)
	}
	return nil
}

package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryImage    = "image"
	CategoryDocument = "document"
)

// UploadIntent is journaled before an object write and removed once the
// page record references the object (or the object has been cleaned up).
type UploadIntent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Category  string    `gorm:"column:category;not null;index" json:"category"`
	Page      string    `gorm:"column:page;not null;index" json:"page"`
	ObjectKey string    `gorm:"column:object_key;not null" json:"object_key"`
	PublicURL string    `gorm:"column:public_url;not null" json:"public_url"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (UploadIntent) TableName() string { return "upload_intent" }

func (i *UploadIntent) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MainField holds content saved in the legacy flat-string shape.
const MainField = "main"

type PageContent struct {
	ID      uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	Page    string                                `gorm:"column:page;not null;uniqueIndex" json:"page"`
	Fields  datatypes.JSONType[map[string]string] `gorm:"column:fields" json:"fields"`
	Version int64                                 `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PageContent) TableName() string { return "page_content" }

func (c *PageContent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// FieldMap returns a copy of the stored fields, never nil.
func (c *PageContent) FieldMap() map[string]string {
	out := map[string]string{}
	if c == nil {
		return out
	}
	for k, v := range c.Fields.Data() {
		out[k] = v
	}
	return out
}

// Merge overwrites the given fields and keeps the rest.
func (c *PageContent) Merge(fields map[string]string) {
	merged := c.FieldMap()
	for k, v := range fields {
		merged[k] = v
	}
	c.Fields = datatypes.NewJSONType(merged)
}

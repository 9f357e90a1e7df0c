package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImageAsset holds the ordered image URLs of one page. URL is empty or a
// member of URLs.
type ImageAsset struct {
	ID      uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Page    string                      `gorm:"column:page;not null;uniqueIndex" json:"page"`
	URL     string                      `gorm:"column:url" json:"url"`
	URLs    datatypes.JSONSlice[string] `gorm:"column:urls" json:"urls"`
	Version int64                       `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ImageAsset) TableName() string { return "image_asset" }

func (a *ImageAsset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	return nil
}

// Display returns URLs, falling back to the single URL pointer.
func (a *ImageAsset) Display() []string {
	if a == nil {
		return []string{}
	}
	if len(a.URLs) > 0 {
		out := make([]string, len(a.URLs))
		copy(out, a.URLs)
		return out
	}
	if a.URL != "" {
		return []string{a.URL}
	}
	return []string{}
}

func (a *ImageAsset) Contains(url string) bool {
	for _, u := range a.URLs {
		if u == url {
			return true
		}
	}
	return a.URL == url && url != ""
}

// Append adds url as the most recent image and points URL at it.
func (a *ImageAsset) Append(url string) {
	a.URLs = append(a.URLs, url)
	a.URL = url
}

// Remove drops url and repoints URL to the new first element, or clears it
// when no images remain. It reports whether url was present.
func (a *ImageAsset) Remove(url string) bool {
	if url == "" || !a.Contains(url) {
		return false
	}
	kept := make([]string, 0, len(a.URLs))
	for _, u := range a.URLs {
		if u != url {
			kept = append(kept, u)
		}
	}
	a.URLs = kept
	a.URL = ""
	if len(kept) > 0 {
		a.URL = kept[0]
	}
	return true
}

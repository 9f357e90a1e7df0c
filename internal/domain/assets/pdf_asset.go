package assets

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PdfEntry struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	Section      string `json:"section"`
}

// PdfAsset holds the PDFs of one page. Entry URLs are unique per page.
type PdfAsset struct {
	ID      uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	Page    string                        `gorm:"column:page;not null;uniqueIndex" json:"page"`
	Pdfs    datatypes.JSONSlice[PdfEntry] `gorm:"column:pdfs" json:"pdfs"`
	Version int64                         `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PdfAsset) TableName() string { return "pdf_asset" }

func (a *PdfAsset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	return nil
}

// Entries returns the PDFs, filtered by section when one is given.
// Section matching ignores case.
func (a *PdfAsset) Entries(section string) []PdfEntry {
	out := []PdfEntry{}
	if a == nil {
		return out
	}
	section = strings.TrimSpace(section)
	for _, e := range a.Pdfs {
		if section != "" && !strings.EqualFold(e.Section, section) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Add appends entry unless its URL is already listed.
func (a *PdfAsset) Add(entry PdfEntry) bool {
	for _, e := range a.Pdfs {
		if e.URL == entry.URL {
			return false
		}
	}
	a.Pdfs = append(a.Pdfs, entry)
	return true
}

// Remove pulls the entry with url and reports whether one matched.
func (a *PdfAsset) Remove(url string) bool {
	kept := make([]PdfEntry, 0, len(a.Pdfs))
	found := false
	for _, e := range a.Pdfs {
		if e.URL == url {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	a.Pdfs = kept
	return found
}

func (a *PdfAsset) References(url string) bool {
	for _, e := range a.Pdfs {
		if e.URL == url {
			return true
		}
	}
	return false
}

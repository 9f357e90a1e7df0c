package instructors

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusAvailable = "Available"
	StatusFull      = "Full"
)

type Instructor struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Page   string    `gorm:"column:page;not null;index" json:"page"`
	Name   string    `gorm:"column:name;not null" json:"name"`
	Status string    `gorm:"column:status;not null" json:"status"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Instructor) TableName() string { return "instructor" }

func (i *Instructor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = StatusAvailable
	}
	return nil
}

func ValidStatus(s string) bool {
	return s == StatusAvailable || s == StatusFull
}

// Flip returns the opposite status.
func Flip(s string) string {
	if s == StatusFull {
		return StatusAvailable
	}
	return StatusFull
}

// SortByAvailability orders Available before Full, keeping the existing
// relative order inside each group.
func SortByAvailability(list []*Instructor) {
	sort.SliceStable(list, func(i, j int) bool {
		return rank(list[i].Status) < rank(list[j].Status)
	})
}

func rank(status string) int {
	if status == StatusAvailable {
		return 0
	}
	return 1
}

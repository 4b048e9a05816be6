package templates

import (
	"time"

	"gorm.io/gorm"
)

// Template is a persisted order snapshot addressed by name. The snapshot is
// stored as JSON so the schema can evolve without migrations.
type Template struct {
	gorm.Model  `json:"-"`
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description"`
	Snapshot    string    `json:"snapshot"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Package history records submitted orders and their outcomes for audit.
package history

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Record is one submitted order and the brokerage's response to it. The full
// order and response JSON are kept verbatim alongside the indexed summary
// columns.
type Record struct {
	gorm.Model   `json:"-"`
	RecordID     string    `gorm:"uniqueIndex" json:"record_id"`
	ClientID     string    `gorm:"index" json:"client_id,omitempty"`
	Kind         string    `json:"kind"` // ORDER or STRATEGY
	Symbol       string    `json:"symbol"`
	Instruction  string    `json:"instruction"`
	Quantity     int       `json:"quantity"`
	Price        string    `json:"price,omitempty"`
	Status       string    `json:"status"`
	OrderJSON    string    `json:"order_json"`
	ResponseJSON string    `json:"response_json,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// CreateRecord stores a new history record.
func (d *Database) CreateRecord(record *Record) error {
	return d.db.Create(record).Error
}

// ListRecent returns the newest records, up to limit.
func (d *Database) ListRecent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []Record
	if err := d.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list order history: %w", err)
	}
	return records, nil
}

// ListBySymbol returns the newest records for a symbol, up to limit.
func (d *Database) ListBySymbol(symbol string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []Record
	if err := d.db.Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list order history for symbol: %w", err)
	}
	return records, nil
}

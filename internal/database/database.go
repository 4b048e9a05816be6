package database

import (
	"github.com/neusse/ez-orders/internal/history"
	"github.com/neusse/ez-orders/internal/templates"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "ezorders.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&templates.Template{},
		&history.Record{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

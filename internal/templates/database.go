package templates

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/neusse/ez-orders/internal/orders"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// SaveTemplate creates a template or overwrites the one already stored under
// the same name.
func (d *Database) SaveTemplate(tmpl *Template) error {
	var existing Template
	err := d.db.Where("name = ?", tmpl.Name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d.db.Create(tmpl).Error
	}
	if err != nil {
		return fmt.Errorf("failed to look up template: %w", err)
	}

	existing.Description = tmpl.Description
	existing.Snapshot = tmpl.Snapshot
	return d.db.Save(&existing).Error
}

// GetTemplate retrieves a template by name.
func (d *Database) GetTemplate(name string) (*Template, error) {
	var tmpl Template
	if err := d.db.Where("name = ?", name).First(&tmpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", orders.ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}
	return &tmpl, nil
}

// ListTemplates returns the stored template names, newest first.
func (d *Database) ListTemplates() ([]Template, error) {
	var tmpls []Template
	if err := d.db.Order("updated_at DESC").Find(&tmpls).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return tmpls, nil
}

// DeleteTemplate removes a template by name.
func (d *Database) DeleteTemplate(name string) error {
	result := d.db.Where("name = ?", name).Delete(&Template{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", orders.ErrTemplateNotFound, name)
	}
	return nil
}

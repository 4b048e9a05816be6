// Package templates persists reusable order snapshots under unique names.
// The service implements orders.Store so builders can save and load
// templates directly.
package templates

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/neusse/ez-orders/internal/orders"
	"github.com/neusse/ez-orders/internal/types"
	"github.com/neusse/ez-orders/pkg/response"
)

// Service stores and retrieves order templates.
type Service struct {
	db *Database
}

// NewService creates a new template service with the given database connection.
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// Save persists a snapshot under the given name, overwriting any previous
// template with that name.
func (s *Service) Save(name, description string, snap *orders.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.db.SaveTemplate(&Template{
		Name:        name,
		Description: description,
		Snapshot:    string(raw),
	})
}

// Load retrieves the snapshot stored under the given name.
func (s *Service) Load(name string) (*orders.Snapshot, error) {
	tmpl, err := s.db.GetTemplate(name)
	if err != nil {
		return nil, err
	}
	var snap orders.Snapshot
	if err := json.Unmarshal([]byte(tmpl.Snapshot), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %q: %w", name, err)
	}
	return &snap, nil
}

// List returns the stored template names, newest first.
func (s *Service) List() ([]string, error) {
	tmpls, err := s.db.ListTemplates()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tmpls))
	for _, tmpl := range tmpls {
		names = append(names, tmpl.Name)
	}
	return names, nil
}

// Delete removes the template stored under the given name.
func (s *Service) Delete(name string) error {
	return s.db.DeleteTemplate(name)
}

// Describe returns the full template record for API responses.
func (s *Service) Describe(name string) (*Template, error) {
	return s.db.GetTemplate(name)
}

// GinHandlers contains HTTP handlers for template endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for template endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SaveTemplateHandler handles PUT requests to store a template
// URL parameter: name
func (h *GinHandlers) SaveTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if name == "" {
			response.BadRequest(c, "Template name is required")
			return
		}

		var req types.SaveTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.Save(name, req.Description, req.Snapshot); err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, gin.H{"name": name})
	}
}

// GetTemplateHandler handles GET requests for a single template
// URL parameter: name
func (h *GinHandlers) GetTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tmpl, err := h.service.Describe(c.Param("name"))
		if err != nil {
			response.HandleError(c, err)
			return
		}
		response.Success(c, tmpl)
	}
}

// ListTemplatesHandler handles GET requests for all template names
func (h *GinHandlers) ListTemplatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := h.service.List()
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, gin.H{"templates": names})
	}
}

// DeleteTemplateHandler handles DELETE requests for a template
// URL parameter: name
func (h *GinHandlers) DeleteTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.service.Delete(c.Param("name")); err != nil {
			response.HandleError(c, err)
			return
		}
		response.Success(c, gin.H{"deleted": c.Param("name")})
	}
}

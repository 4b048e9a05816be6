package ezorders

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neusse/ez-orders/internal/auth"
	"github.com/neusse/ez-orders/internal/strategies"
	"github.com/neusse/ez-orders/internal/types"
	"github.com/neusse/ez-orders/pkg/response"
)

// GinHandlers contains HTTP handlers for order endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for order endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// handleServiceError maps facade errors before falling back to the shared
// response mapping.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrderValueExceeded):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrExternalRejection):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrNoSubmitFunc), errors.Is(err, ErrNoPreviewFunc), errors.Is(err, ErrNoTemplateStore):
		response.InternalError(c, err.Error())
	default:
		response.HandleError(c, err)
	}
}

// BuildOrderHandler handles POST requests that build an order payload
// without submitting it. Confirmation does not apply here; nothing is
// placed.
func (h *GinHandlers) BuildOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		b, err := h.service.BuilderFromRequest(&req)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		b.Confirm()

		payload, err := b.Build()
		if err != nil {
			handleServiceError(c, err)
			return
		}

		response.Success(c, types.BuildResponse{
			Order:    payload,
			Warnings: b.Warnings(),
		})
	}
}

// PreviewOrderHandler handles POST requests that build an order and run the
// brokerage preview on it.
func (h *GinHandlers) PreviewOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		b, err := h.service.BuilderFromRequest(&req)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		b.Confirm()

		payload, err := b.Build()
		if err != nil {
			handleServiceError(c, err)
			return
		}

		if h.service.preview == nil {
			response.InternalError(c, ErrNoPreviewFunc.Error())
			return
		}
		result, err := h.service.preview(payload)
		if err != nil {
			handleServiceError(c, err)
			return
		}

		response.Success(c, result)
	}
}

// SubmitOrderHandler handles POST requests that submit an order. The
// configured confirmation policy applies: requests must carry
// confirmed=true when the service requires confirmation. Query parameter
// dry_run=true validates and logs without sending.
func (h *GinHandlers) SubmitOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

		b, err := h.service.BuilderFromRequest(&req)
		if err != nil {
			handleServiceError(c, err)
			return
		}

		claims, _ := c.Get("claims")
		clientID := auth.GetClientID(claims)

		result, err := h.service.SubmitOrderFor(clientID, b, dryRun)
		if err != nil {
			handleServiceError(c, err)
			return
		}

		response.Success(c, result)
	}
}

// OrderHistoryHandler handles GET requests for recent order history.
// Query parameter: limit
func (h *GinHandlers) OrderHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

		records, err := h.service.OrderHistory(limit)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, gin.H{"history": records})
	}
}

// ListStrategiesHandler handles GET requests for the known strategy names.
func (h *GinHandlers) ListStrategiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, gin.H{"strategies": strategies.List()})
	}
}

package types

import "github.com/neusse/ez-orders/internal/orders"

// LegRequest is one order leg as submitted by an API client.
type LegRequest struct {
	Action    string `json:"action" binding:"required"`
	Symbol    string `json:"symbol" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	AssetType string `json:"asset_type"`
}

// OrderRequest is the wire form of an order to build, preview or submit.
// Children nest recursively for conditional (OCO/TRIGGER) trees; each child
// carries the composition mode that attaches it to this order.
type OrderRequest struct {
	Legs            []LegRequest    `json:"legs" binding:"required"`
	OrderType       string          `json:"order_type"`
	Price           float64         `json:"price,omitempty"`
	StopPrice       float64         `json:"stop_price,omitempty"`
	TrailingOffset  *float64        `json:"trailing_offset,omitempty"`
	TrailingType    string          `json:"trailing_type,omitempty"`
	TrailingBasis   string          `json:"trailing_basis,omitempty"`
	TimeInForce     string          `json:"time_in_force,omitempty"`
	StrategyTag     string          `json:"strategy_tag,omitempty"`
	CompositionMode string          `json:"composition_mode,omitempty"`
	Children        []*OrderRequest `json:"children,omitempty"`
	Confirmed       bool            `json:"confirmed,omitempty"`
}

// SaveTemplateRequest is the body of a template save call.
type SaveTemplateRequest struct {
	Description string           `json:"description"`
	Snapshot    *orders.Snapshot `json:"snapshot" binding:"required"`
}

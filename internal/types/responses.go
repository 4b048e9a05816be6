package types

import (
	"time"

	"github.com/neusse/ez-orders/internal/orders"
)

// Submission and preview statuses as reported to clients.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
	StatusDryRun  = "DRY_RUN"
)

// BuildResponse carries a built order payload plus any advisory warnings.
type BuildResponse struct {
	Order    *orders.Payload `json:"order"`
	Warnings []string        `json:"warnings,omitempty"`
}

// PreviewMessage is a single rejection or warning raised during preview.
type PreviewMessage struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// PreviewResult is the brokerage's verdict on an order before submission.
// Rejections are fatal; warnings are advisory. EstimatedCost includes
// modeled commissions and fees.
type PreviewResult struct {
	Rejections    []PreviewMessage `json:"rejections,omitempty"`
	Warnings      []PreviewMessage `json:"warnings,omitempty"`
	EstimatedCost float64          `json:"estimated_cost"`
}

// SubmissionResult reports the outcome of a submit call.
type SubmissionResult struct {
	Status      string    `json:"status"`
	OrderID     string    `json:"order_id,omitempty"`
	Message     string    `json:"message,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

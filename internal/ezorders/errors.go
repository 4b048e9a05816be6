package ezorders

import "errors"

var (
	// ErrOrderValueExceeded is returned when an order's notional value is
	// above the configured ceiling or a caller-supplied cost limit.
	ErrOrderValueExceeded = errors.New("order value exceeds limit")

	// ErrExternalRejection is returned when the brokerage rejects an order
	// in preview or submission.
	ErrExternalRejection = errors.New("order rejected by brokerage")

	// ErrNoSubmitFunc is returned when a submission is attempted before a
	// submit function is wired in.
	ErrNoSubmitFunc = errors.New("no submit function configured")

	// ErrNoPreviewFunc is returned when a preview-dependent operation runs
	// before a preview function is wired in.
	ErrNoPreviewFunc = errors.New("no preview function configured")

	// ErrNoTemplateStore is returned when template operations are used
	// before a store is wired in.
	ErrNoTemplateStore = errors.New("no template store configured")
)

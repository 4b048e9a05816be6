package ezorders

import (
	"fmt"
	"strings"

	"github.com/neusse/ez-orders/internal/orders"
	"github.com/neusse/ez-orders/internal/types"
)

// BuilderFromRequest converts an API order request into a builder, applying
// the service's defaults and confirmation policy. Children recurse; every
// child must carry a composition mode.
func (s *Service) BuilderFromRequest(req *types.OrderRequest) (*orders.Builder, error) {
	b, err := s.builderFromRequest(req)
	if err != nil {
		return nil, err
	}
	if s.config.RequireConfirmation {
		b.RequireConfirmation()
	}
	if req.Confirmed {
		b.Confirm()
	}
	return b, nil
}

func (s *Service) builderFromRequest(req *types.OrderRequest) (*orders.Builder, error) {
	b := orders.New()

	for _, leg := range req.Legs {
		action, err := orders.ParseAction(leg.Action)
		if err != nil {
			return nil, err
		}
		assetType, err := parseAssetType(leg.AssetType, action)
		if err != nil {
			return nil, err
		}
		b.WithLeg(action, leg.Symbol, leg.Quantity, assetType)
	}

	if err := s.applyPricing(b, req); err != nil {
		return nil, err
	}

	tif := s.config.DefaultTimeInForce
	if req.TimeInForce != "" {
		parsed, err := parseTimeInForce(req.TimeInForce)
		if err != nil {
			return nil, err
		}
		tif = parsed
	}
	s.applyTimeInForce(b, tif)

	if req.StrategyTag != "" {
		b.StrategyTag(orders.ComplexStrategy(strings.ToUpper(strings.TrimSpace(req.StrategyTag))))
	}

	for _, childReq := range req.Children {
		child, err := s.builderFromRequest(childReq)
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(strings.TrimSpace(childReq.CompositionMode)) {
		case string(orders.Trigger):
			b.OneTriggersOther(child)
		case string(orders.OCO):
			b.OneCancelsOther(child)
		default:
			return nil, fmt.Errorf("child order requires composition_mode TRIGGER or OCO, got %q", childReq.CompositionMode)
		}
	}

	return b, b.Err()
}

func (s *Service) applyPricing(b *orders.Builder, req *types.OrderRequest) error {
	orderType := orders.Pricing(strings.ToUpper(strings.TrimSpace(req.OrderType)))
	switch orderType {
	case "", orders.Market:
		b.Market()
	case orders.Limit:
		b.Limit(req.Price)
	case orders.Stop:
		b.Stop(req.StopPrice)
	case orders.StopLimit:
		b.StopLimit(req.StopPrice, req.Price)
	case orders.TrailingStop, orders.TrailingStopLimit:
		if req.TrailingOffset == nil {
			return fmt.Errorf("%w: trailing_offset", orders.ErrMissingRequiredField)
		}
		linkType := orders.LinkType(strings.ToUpper(strings.TrimSpace(req.TrailingType)))
		if linkType == "" {
			linkType = orders.LinkValue
		}
		basis := orders.LinkBasis(strings.ToUpper(strings.TrimSpace(req.TrailingBasis)))
		if basis == "" {
			basis = orders.BasisBid
		}
		if orderType == orders.TrailingStop {
			b.TrailingStop(*req.TrailingOffset, linkType, basis)
		} else {
			b.TrailingStopLimit(*req.TrailingOffset, req.Price, linkType, basis)
		}
	case orders.NetDebit:
		b.NetDebit(req.Price)
	case orders.NetCredit:
		b.NetCredit(req.Price)
	case orders.NetZero:
		b.NetZero()
	default:
		return fmt.Errorf("unknown order type: %q", req.OrderType)
	}
	return nil
}

func parseAssetType(s string, action orders.Action) (orders.AssetType, error) {
	switch orders.AssetType(strings.ToUpper(strings.TrimSpace(s))) {
	case orders.Equity:
		return orders.Equity, nil
	case orders.Option:
		return orders.Option, nil
	case "":
		// Infer from the action when the client does not say.
		switch action {
		case orders.BuyToOpen, orders.SellToOpen, orders.BuyToClose, orders.SellToClose:
			return orders.Option, nil
		}
		return orders.Equity, nil
	}
	return "", fmt.Errorf("unknown asset type: %q", s)
}

func parseTimeInForce(s string) (orders.TimeInForce, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAY":
		return orders.Day, nil
	case "GTC", "GOOD_TILL_CANCEL":
		return orders.GTC, nil
	case "IOC", "IMMEDIATE_OR_CANCEL":
		return orders.IOC, nil
	case "FOK", "FILL_OR_KILL":
		return orders.FOK, nil
	}
	return "", fmt.Errorf("unknown time in force: %q", s)
}

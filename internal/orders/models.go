package orders

import (
	"fmt"
	"strings"
)

// Action is the instruction carried by a single order leg.
type Action string

const (
	Buy         Action = "BUY"
	Sell        Action = "SELL"
	SellShort   Action = "SELL_SHORT"
	BuyToCover  Action = "BUY_TO_COVER"
	BuyToOpen   Action = "BUY_TO_OPEN"
	SellToOpen  Action = "SELL_TO_OPEN"
	BuyToClose  Action = "BUY_TO_CLOSE"
	SellToClose Action = "SELL_TO_CLOSE"
)

// ParseAction maps a request string onto a known leg action.
func ParseAction(s string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(s)))
	switch action {
	case Buy, Sell, SellShort, BuyToCover, BuyToOpen, SellToOpen, BuyToClose, SellToClose:
		return action, nil
	}
	return "", fmt.Errorf("unknown order action: %q", s)
}

// AssetType distinguishes equity from option legs.
type AssetType string

const (
	Equity AssetType = "EQUITY"
	Option AssetType = "OPTION"
)

// Pricing is the order's pricing mode as it appears on the wire.
type Pricing string

const (
	Market            Pricing = "MARKET"
	Limit             Pricing = "LIMIT"
	Stop              Pricing = "STOP"
	StopLimit         Pricing = "STOP_LIMIT"
	TrailingStop      Pricing = "TRAILING_STOP"
	TrailingStopLimit Pricing = "TRAILING_STOP_LIMIT"
	NetDebit          Pricing = "NET_DEBIT"
	NetCredit         Pricing = "NET_CREDIT"
	NetZero           Pricing = "NET_ZERO"
)

// TimeInForce controls how long the order stays working.
type TimeInForce string

const (
	Day TimeInForce = "DAY"
	GTC TimeInForce = "GOOD_TILL_CANCEL"
	IOC TimeInForce = "IMMEDIATE_OR_CANCEL"
	FOK TimeInForce = "FILL_OR_KILL"
)

// ComplexStrategy tags a recognized multi-leg options shape. It is carried
// on the payload as metadata and not re-validated against the legs.
type ComplexStrategy string

const (
	StrategyNone       ComplexStrategy = "NONE"
	StrategyCovered    ComplexStrategy = "COVERED"
	StrategyVertical   ComplexStrategy = "VERTICAL"
	StrategyBackRatio  ComplexStrategy = "BACK_RATIO"
	StrategyCalendar   ComplexStrategy = "CALENDAR"
	StrategyDiagonal   ComplexStrategy = "DIAGONAL"
	StrategyStraddle   ComplexStrategy = "STRADDLE"
	StrategyStrangle   ComplexStrategy = "STRANGLE"
	StrategyButterfly  ComplexStrategy = "BUTTERFLY"
	StrategyCondor     ComplexStrategy = "CONDOR"
	StrategyIronCondor ComplexStrategy = "IRON_CONDOR"
	StrategyCustom     ComplexStrategy = "CUSTOM"
)

// StrategyType is the order's composition mode: a single order, or the
// parent of a conditional tree.
type StrategyType string

const (
	Single  StrategyType = "SINGLE"
	OCO     StrategyType = "OCO"
	Trigger StrategyType = "TRIGGER"
)

// LinkBasis is the reference price a trailing stop follows.
type LinkBasis string

const (
	BasisManual  LinkBasis = "MANUAL"
	BasisBase    LinkBasis = "BASE"
	BasisTrigger LinkBasis = "TRIGGER"
	BasisLast    LinkBasis = "LAST"
	BasisBid     LinkBasis = "BID"
	BasisAsk     LinkBasis = "ASK"
	BasisMark    LinkBasis = "MARK"
)

// LinkType is how a trailing stop offset is expressed.
type LinkType string

const (
	LinkValue   LinkType = "VALUE"
	LinkPercent LinkType = "PERCENT"
	LinkTick    LinkType = "TICK"
)

// Leg is one action+symbol+quantity unit of an order. Legs appear in the
// payload in the order they were added.
type Leg struct {
	Action    Action    `json:"action"`
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	AssetType AssetType `json:"asset_type"`
}

// Instrument identifies what a payload leg trades.
type Instrument struct {
	Symbol    string    `json:"symbol"`
	AssetType AssetType `json:"assetType"`
}

// PayloadLeg is one entry of the payload's orderLegCollection.
type PayloadLeg struct {
	Instruction Action     `json:"instruction"`
	Quantity    int        `json:"quantity"`
	Instrument  Instrument `json:"instrument"`
}

// Payload is the brokerage-compatible order JSON produced by Build. Field
// names match the order schema exactly; child payloads nest recursively
// under childOrderStrategies for OCO/TRIGGER trees.
type Payload struct {
	Session                  string          `json:"session"`
	Duration                 TimeInForce     `json:"duration"`
	OrderType                Pricing         `json:"orderType"`
	OrderStrategyType        StrategyType    `json:"orderStrategyType"`
	ComplexOrderStrategyType ComplexStrategy `json:"complexOrderStrategyType,omitempty"`
	Price                    string          `json:"price,omitempty"`
	StopPrice                string          `json:"stopPrice,omitempty"`
	StopPriceLinkBasis       LinkBasis       `json:"stopPriceLinkBasis,omitempty"`
	StopPriceLinkType        LinkType        `json:"stopPriceLinkType,omitempty"`
	StopPriceOffset          *float64        `json:"stopPriceOffset,omitempty"`
	OrderLegCollection       []PayloadLeg    `json:"orderLegCollection"`
	ChildOrderStrategies     []*Payload      `json:"childOrderStrategies,omitempty"`
}

// Snapshot is the serializable pre-build state of a builder, used for
// template persistence. Conditional children and confirmation state are
// deliberately not part of it.
type Snapshot struct {
	Legs        []Leg       `json:"legs"`
	OrderType   Pricing     `json:"order_type,omitempty"`
	Price       string      `json:"price,omitempty"`
	StopPrice   string      `json:"stop_price,omitempty"`
	TimeInForce TimeInForce `json:"time_in_force"`
	Session     string      `json:"session"`
}

// Store persists builder snapshots under a unique name. Implementations own
// the storage format; the builder only deals in snapshots.
type Store interface {
	Save(name, description string, snap *Snapshot) error
	Load(name string) (*Snapshot, error)
	List() ([]string, error)
	Delete(name string) error
}

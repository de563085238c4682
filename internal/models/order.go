package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order
type Status string

// Order statuses
const (
	StatusNew           Status = "NEW"
	StatusInPreparation Status = "IN_PREPARATION"
	StatusDelivered     Status = "DELIVERED"
)

// ParseStatus maps a status name onto a Status
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusNew, StatusInPreparation, StatusDelivered:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Transition is a trigger of the order state machine
type Transition string

// Order transitions
const (
	TransitionPrepare Transition = "PREPARE"
	TransitionDeliver Transition = "DELIVER"
)

type edge struct {
	from Status
	to   Status
}

var transitions = map[Transition]edge{
	TransitionPrepare: {from: StatusNew, to: StatusInPreparation},
	TransitionDeliver: {from: StatusInPreparation, to: StatusDelivered},
}

// Next returns the status reached by applying t to from
func (t Transition) Next(from Status) (Status, error) {
	e, ok := transitions[t]
	if !ok {
		return "", fmt.Errorf("%w: unknown transition %q", ErrInvalidState, t)
	}
	if e.from != from {
		return "", fmt.Errorf("%w: %s requires status %s, order is %s", ErrInvalidState, t, e.from, from)
	}
	return e.to, nil
}

// LineAction selects how an order modification changes the line list
type LineAction string

const (
	LineAdd    LineAction = "ADD"
	LineRemove LineAction = "REMOVE"
)

// MilkType is a beverage customization
type MilkType string

const (
	MilkWhole       MilkType = "WHOLE"
	MilkLactoseFree MilkType = "LACTOSE_FREE"
	MilkAlmond      MilkType = "ALMOND"
	MilkSoy         MilkType = "SOY"
	MilkNone        MilkType = "NO_MILK"
)

// SugarLevel is a beverage customization
type SugarLevel string

const (
	SugarNone   SugarLevel = "NO_SUGAR"
	SugarLow    SugarLevel = "LOW"
	SugarNormal SugarLevel = "NORMAL"
	SugarHigh   SugarLevel = "HIGH"
)

func (m MilkType) valid() bool {
	switch m {
	case "", MilkWhole, MilkLactoseFree, MilkAlmond, MilkSoy, MilkNone:
		return true
	}
	return false
}

func (s SugarLevel) valid() bool {
	switch s {
	case "", SugarNone, SugarLow, SugarNormal, SugarHigh:
		return true
	}
	return false
}

// ItemRequest is one requested line of a new or modified order
type ItemRequest struct {
	ProductCode string     `json:"product_code" binding:"required"`
	Quantity    int        `json:"quantity" binding:"required,min=1"`
	Milk        MilkType   `json:"milk,omitempty"`
	Sugar       SugarLevel `json:"sugar,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// Validate checks quantity and customization values
func (r ItemRequest) Validate() error {
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity for %s must be positive", ErrInvalidLine, r.ProductCode)
	}
	if !r.Milk.valid() {
		return fmt.Errorf("%w: unknown milk type %q", ErrInvalidLine, r.Milk)
	}
	if !r.Sugar.valid() {
		return fmt.Errorf("%w: unknown sugar level %q", ErrInvalidLine, r.Sugar)
	}
	return nil
}

// LineItem is one product entry of an order.
// Name and unit price are captured when the line is created.
type LineItem struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Milk        MilkType        `json:"milk,omitempty"`
	Sugar       SugarLevel      `json:"sugar,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// NewLineItem builds a line for product p from request r.
// Customizations only apply to beverages and are dropped for anything else.
func NewLineItem(p Product, r ItemRequest) LineItem {
	line := LineItem{
		ProductCode: p.Code,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    r.Quantity,
		Note:        r.Note,
	}
	if p.Category == CategoryBeverage {
		line.Milk = r.Milk
		line.Sugar = r.Sugar
	}
	return line
}

// Subtotal returns unit price times quantity
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// String formats the line the way a receipt shows it
func (l LineItem) String() string {
	var details []string
	if l.Milk != "" {
		details = append(details, "milk: "+string(l.Milk))
	}
	if l.Sugar != "" {
		details = append(details, "sugar: "+string(l.Sugar))
	}
	if l.Note != "" {
		details = append(details, "note: "+l.Note)
	}

	s := fmt.Sprintf("%dx %s", l.Quantity, l.ProductName)
	if len(details) > 0 {
		s += " - " + strings.Join(details, ", ")
	}
	return s + " - $" + l.Subtotal().StringFixed(2)
}

// StatusChange records who moved an order between statuses and when
type StatusChange struct {
	From  Status    `json:"from"`
	To    Status    `json:"to"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

// Order represents one customer transaction
type Order struct {
	Number     int64           `json:"number"`
	CustomerID string          `json:"customer_id"`
	Lines      []LineItem      `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	History    []StatusChange  `json:"history,omitempty"`
}

// NewOrder creates an order in status New with its total computed
func NewOrder(number int64, customerID string, lines []LineItem, createdAt time.Time) *Order {
	o := &Order{
		Number:     number,
		CustomerID: customerID,
		Lines:      append([]LineItem(nil), lines...),
		CreatedAt:  createdAt,
		Status:     StatusNew,
	}
	o.recalculate()
	return o
}

// ComputeTotal sums the line subtotals
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (o *Order) recalculate() {
	o.Total = o.ComputeTotal()
}

// AddLine appends a line; only allowed while the order is New
func (o *Order) AddLine(l LineItem) error {
	if o.Status != StatusNew {
		return fmt.Errorf("%w: order %d is %s", ErrInvalidState, o.Number, o.Status)
	}
	o.Lines = append(o.Lines, l)
	o.recalculate()
	return nil
}

// RemoveLine removes the first line for productCode; only allowed while the order is New
func (o *Order) RemoveLine(productCode string) (LineItem, error) {
	if o.Status != StatusNew {
		return LineItem{}, fmt.Errorf("%w: order %d is %s", ErrInvalidState, o.Number, o.Status)
	}
	for i, l := range o.Lines {
		if l.ProductCode == productCode {
			o.Lines = append(o.Lines[:i:i], o.Lines[i+1:]...)
			o.recalculate()
			return l, nil
		}
	}
	return LineItem{}, fmt.Errorf("%w: order %d has no line for %s", ErrLineNotFound, o.Number, productCode)
}

// Advance applies transition t and records the actor
func (o *Order) Advance(t Transition, actor string, at time.Time) error {
	next, err := t.Next(o.Status)
	if err != nil {
		return fmt.Errorf("order %d: %w", o.Number, err)
	}
	o.History = append(o.History, StatusChange{From: o.Status, To: next, Actor: actor, At: at})
	o.Status = next
	return nil
}

// DeliveryDetail describes who delivered the order and when, or "" if undelivered
func (o *Order) DeliveryDetail() string {
	for i := len(o.History) - 1; i >= 0; i-- {
		if h := o.History[i]; h.To == StatusDelivered {
			return fmt.Sprintf("Order #%d delivered by %s at %s", o.Number, h.Actor, h.At.Format(time.RFC3339))
		}
	}
	return ""
}

// Clone returns a deep copy
func (o *Order) Clone() Order {
	out := *o
	out.Lines = append([]LineItem(nil), o.Lines...)
	out.History = append([]StatusChange(nil), o.History...)
	return out
}

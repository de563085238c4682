package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"cafeteria-service/internal/catalog"
	"cafeteria-service/internal/directory"
	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SnapshotStore persists the engine state as one opaque blob.
// Load returns models.ErrNoSnapshot when nothing has been saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot []byte) error
	Load(ctx context.Context) ([]byte, error)
	Backend() string
}

// OrderEngine owns the catalog, the directory and the order table.
// Every mutating operation runs under one lock, so a stock check and the
// decrement that follows it can never interleave with another order.
type OrderEngine struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	directory *directory.Directory
	orders    []*models.Order
	index     map[int64]*models.Order
	// lastNumber is the highest order number ever assigned; it never goes back
	lastNumber int64

	store    SnapshotStore
	events   EventPublisher
	hashCost int
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderEngine creates an empty engine. store and events may be nil.
func NewOrderEngine(store SnapshotStore, events EventPublisher, hashCost int) *OrderEngine {
	dir := directory.New(hashCost)
	return &OrderEngine{
		catalog:   catalog.New(),
		directory: dir,
		index:     make(map[int64]*models.Order),
		store:     store,
		events:    events,
		hashCost:  dir.HashCost(),
		logger:    util.Named("engine"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (e *OrderEngine) reject(operation string, err error) error {
	util.OrdersFailedTotal.WithLabelValues(operation, failureReason(err)).Inc()
	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, models.ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, models.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, models.ErrEmployeeNotFound):
		return "employee_not_found"
	case errors.Is(err, models.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrLineNotFound):
		return "line_not_found"
	case errors.Is(err, models.ErrInvalidLine):
		return "invalid_line"
	}
	return "error"
}

// persistLocked saves the whole state. Callers hold e.mu.
func (e *OrderEngine) persistLocked(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	backend := e.store.Backend()

	blob, err := e.snapshotLocked()
	if err != nil {
		util.SnapshotPersistFailures.WithLabelValues(backend).Inc()
		return &PersistError{Backend: backend, Err: err}
	}

	start := time.Now()
	err = e.store.Save(ctx, blob)
	util.SnapshotPersistLatency.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	if err != nil {
		util.SnapshotPersistFailures.WithLabelValues(backend).Inc()
		e.logger.Warn("Snapshot save failed, keeping in-memory state",
			zap.String("backend", backend),
			zap.Error(err))
		return &PersistError{Backend: backend, Err: err}
	}

	util.SnapshotBytes.Set(float64(len(blob)))
	return nil
}

// CreateOrder checks every requested line against stock and, only if all fit,
// reserves the stock, assigns the next order number and records the order.
// On rejection nothing changes.
func (e *OrderEngine) CreateOrder(ctx context.Context, customerID string, items []models.ItemRequest) (order *models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.CreateOrder",
		attribute.String("customer_id", customerID),
		attribute.Int("lines", len(items)))
	defer func() { util.EndSpan(span, err) }()

	start := time.Now()
	defer func() { util.CreateOrderLatency.Observe(time.Since(start).Seconds()) }()

	e.mu.Lock()
	order, pending, err := e.createOrderLocked(ctx, customerID, items)
	e.mu.Unlock()

	e.publish(ctx, pending)
	return order, err
}

func (e *OrderEngine) createOrderLocked(ctx context.Context, customerID string, items []models.ItemRequest) (*models.Order, []pendingEvent, error) {
	const op = "create"

	if len(items) == 0 {
		return nil, nil, e.reject(op, fmt.Errorf("%w: an order needs at least one line", models.ErrInvalidLine))
	}
	customer, ok := e.directory.FindCustomer(customerID)
	if !ok {
		return nil, nil, e.reject(op, fmt.Errorf("%w: %s", models.ErrCustomerNotFound, customerID))
	}

	// Check phase: nothing is mutated until every line is known to fit.
	requested := make(map[string]int, len(items))
	lines := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, nil, e.reject(op, err)
		}
		p, err := e.catalog.Get(item.ProductCode)
		if err != nil {
			return nil, nil, e.reject(op, err)
		}
		requested[p.Code] += item.Quantity
		if p.Stock < requested[p.Code] {
			return nil, nil, e.reject(op, &models.InsufficientStockError{
				Code:      p.Code,
				Name:      p.Name,
				Requested: requested[p.Code],
				Available: p.Stock,
			})
		}
		lines = append(lines, models.NewLineItem(p, item))
	}

	// Commit phase.
	for _, l := range lines {
		if _, _, err := e.catalog.AdjustStock(l.ProductCode, -l.Quantity); err != nil {
			return nil, nil, fmt.Errorf("failed to reserve stock for %s: %w", l.ProductCode, err)
		}
		util.StockReservedUnits.WithLabelValues(l.ProductCode).Add(float64(l.Quantity))
	}

	e.lastNumber++
	o := models.NewOrder(e.lastNumber, customer.ID, lines, e.now())
	e.orders = append(e.orders, o)
	e.index[o.Number] = o
	if err := e.directory.AppendOrder(customer.ID, o.Number); err != nil {
		return nil, nil, err
	}

	util.OrdersCreatedTotal.Inc()
	e.logger.Info("Order created",
		zap.Int64("order_number", o.Number),
		zap.String("customer_id", customer.ID),
		zap.String("total", o.Total.StringFixed(2)))

	out := o.Clone()
	pending := []pendingEvent{orderCreated(out, out.CreatedAt)}
	return &out, pending, e.persistLocked(ctx)
}

// ModifyOrder adds or removes a line of an order that is still New.
// Adding reserves stock, removing the first line for the product releases it.
func (e *OrderEngine) ModifyOrder(ctx context.Context, number int64, action models.LineAction, item models.ItemRequest) (order *models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.ModifyOrder",
		attribute.Int64("order_number", number),
		attribute.String("action", string(action)))
	defer func() { util.EndSpan(span, err) }()

	e.mu.Lock()
	order, pending, err := e.modifyOrderLocked(ctx, number, action, item)
	e.mu.Unlock()

	e.publish(ctx, pending)
	return order, err
}

func (e *OrderEngine) modifyOrderLocked(ctx context.Context, number int64, action models.LineAction, item models.ItemRequest) (*models.Order, []pendingEvent, error) {
	const op = "modify"

	o, ok := e.index[number]
	if !ok {
		return nil, nil, e.reject(op, fmt.Errorf("%w: %d", models.ErrOrderNotFound, number))
	}
	if o.Status != models.StatusNew {
		return nil, nil, e.reject(op, fmt.Errorf("%w: order %d is %s", models.ErrInvalidState, number, o.Status))
	}

	var changed pendingEvent
	switch action {
	case models.LineAdd:
		if err := item.Validate(); err != nil {
			return nil, nil, e.reject(op, err)
		}
		p, err := e.catalog.Get(item.ProductCode)
		if err != nil {
			return nil, nil, e.reject(op, err)
		}
		if p.Stock < item.Quantity {
			return nil, nil, e.reject(op, &models.InsufficientStockError{
				Code:      p.Code,
				Name:      p.Name,
				Requested: item.Quantity,
				Available: p.Stock,
			})
		}
		line := models.NewLineItem(p, item)
		if err := o.AddLine(line); err != nil {
			return nil, nil, e.reject(op, err)
		}
		if _, _, err := e.catalog.AdjustStock(p.Code, -line.Quantity); err != nil {
			return nil, nil, err
		}
		util.StockReservedUnits.WithLabelValues(p.Code).Add(float64(line.Quantity))
		changed = orderLineChanged(models.EventTypeOrderLineAdded, o.Clone(), line, e.now())

	case models.LineRemove:
		line, err := o.RemoveLine(item.ProductCode)
		if err != nil {
			return nil, nil, e.reject(op, err)
		}
		if _, _, err := e.catalog.AdjustStock(line.ProductCode, line.Quantity); err != nil {
			e.logger.Warn("Released stock for a product missing from the catalog",
				zap.String("product_code", line.ProductCode),
				zap.Error(err))
		}
		changed = orderLineChanged(models.EventTypeOrderLineRemoved, o.Clone(), line, e.now())

	default:
		return nil, nil, e.reject(op, fmt.Errorf("%w: unknown action %q", models.ErrInvalidLine, action))
	}

	e.logger.Info("Order modified",
		zap.Int64("order_number", number),
		zap.String("action", string(action)),
		zap.String("product_code", item.ProductCode),
		zap.String("total", o.Total.StringFixed(2)))

	out := o.Clone()
	return &out, []pendingEvent{changed}, e.persistLocked(ctx)
}

// Advance applies a state machine transition on behalf of an employee.
// The employee is resolved first, then the order, then the transition.
func (e *OrderEngine) Advance(ctx context.Context, number int64, username string, t models.Transition) (order *models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.Advance",
		attribute.Int64("order_number", number),
		attribute.String("transition", string(t)))
	defer func() { util.EndSpan(span, err) }()

	e.mu.Lock()
	order, pending, err := e.advanceLocked(ctx, number, username, t)
	e.mu.Unlock()

	e.publish(ctx, pending)
	return order, err
}

// Prepare moves a New order to InPreparation
func (e *OrderEngine) Prepare(ctx context.Context, number int64, username string) (*models.Order, error) {
	return e.Advance(ctx, number, username, models.TransitionPrepare)
}

// Deliver moves an InPreparation order to Delivered
func (e *OrderEngine) Deliver(ctx context.Context, number int64, username string) (*models.Order, error) {
	return e.Advance(ctx, number, username, models.TransitionDeliver)
}

func (e *OrderEngine) advanceLocked(ctx context.Context, number int64, username string, t models.Transition) (*models.Order, []pendingEvent, error) {
	const op = "advance"

	emp, ok := e.directory.FindEmployee(username)
	if !ok {
		return nil, nil, e.reject(op, fmt.Errorf("%w: %s", models.ErrEmployeeNotFound, username))
	}
	o, ok := e.index[number]
	if !ok {
		return nil, nil, e.reject(op, fmt.Errorf("%w: %d", models.ErrOrderNotFound, number))
	}
	if err := o.Advance(t, emp.Username, e.now()); err != nil {
		return nil, nil, e.reject(op, err)
	}

	change := o.History[len(o.History)-1]
	util.OrderTransitionsTotal.WithLabelValues(string(change.To)).Inc()
	e.logger.Info("Order advanced",
		zap.Int64("order_number", number),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.String("employee", emp.Username))

	out := o.Clone()
	return &out, []pendingEvent{orderAdvanced(number, change)}, e.persistLocked(ctx)
}

// DeleteOrder removes an order from the table and from its customer's history.
// Reserved stock is not returned to the catalog. The number is never reused.
func (e *OrderEngine) DeleteOrder(ctx context.Context, number int64) (err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.DeleteOrder", attribute.Int64("order_number", number))
	defer func() { util.EndSpan(span, err) }()

	e.mu.Lock()
	pending, err := e.deleteOrderLocked(ctx, number)
	e.mu.Unlock()

	e.publish(ctx, pending)
	return err
}

func (e *OrderEngine) deleteOrderLocked(ctx context.Context, number int64) ([]pendingEvent, error) {
	o, ok := e.index[number]
	if !ok {
		return nil, e.reject("delete", fmt.Errorf("%w: %d", models.ErrOrderNotFound, number))
	}

	delete(e.index, number)
	e.orders = slices.DeleteFunc(e.orders, func(x *models.Order) bool { return x.Number == number })
	e.directory.RemoveOrder(o.CustomerID, number)

	units := 0
	for _, l := range o.Lines {
		units += l.Quantity
	}
	util.OrdersDeletedTotal.Inc()
	e.logger.Info("Order deleted",
		zap.Int64("order_number", number),
		zap.String("status", string(o.Status)),
		zap.Int("units_not_restocked", units))

	return []pendingEvent{orderDeleted(o.Clone(), e.now())}, e.persistLocked(ctx)
}

// GetOrder returns a copy of one order
func (e *OrderEngine) GetOrder(number int64) (models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.index[number]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %d", models.ErrOrderNotFound, number)
	}
	return o.Clone(), nil
}

// ListOrders returns the orders in creation order, optionally restricted to one status.
// An empty filter lists every order. The sequence reflects the table at call time
// and can be iterated more than once.
func (e *OrderEngine) ListOrders(filter models.Status) iter.Seq[models.Order] {
	e.mu.Lock()
	matched := make([]models.Order, 0, len(e.orders))
	for _, o := range e.orders {
		if filter == "" || o.Status == filter {
			matched = append(matched, o.Clone())
		}
	}
	e.mu.Unlock()

	return slices.Values(matched)
}

// CustomerOrders returns a customer's orders in the order they were placed
func (e *OrderEngine) CustomerOrders(customerID string) ([]models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.directory.FindCustomer(customerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCustomerNotFound, customerID)
	}
	out := make([]models.Order, 0, len(c.OrderNumbers))
	for _, n := range c.OrderNumbers {
		if o, ok := e.index[n]; ok {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

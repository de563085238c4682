package service

import (
	"context"
	"fmt"
	"iter"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AddProduct inserts a product or replaces the one with the same code
func (e *OrderEngine) AddProduct(ctx context.Context, p models.Product) (product models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.AddProduct", attribute.String("product_code", p.Code))
	defer func() { util.EndSpan(span, err) }()

	if err := p.Validate(); err != nil {
		return models.Product{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.catalog.Add(p)
	e.logger.Info("Product saved",
		zap.String("product_code", p.Code),
		zap.String("category", string(p.Category)),
		zap.Int("stock", p.Stock))

	saved, _ := e.catalog.Get(p.Code)
	return saved, e.persistLocked(ctx)
}

// AdjustStock changes a product's stock by delta. Results below zero are clamped to zero.
func (e *OrderEngine) AdjustStock(ctx context.Context, code string, delta int) (product models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.AdjustStock",
		attribute.String("product_code", code),
		attribute.Int("delta", delta))
	defer func() { util.EndSpan(span, err) }()

	e.mu.Lock()
	product, pending, err := e.adjustStockLocked(ctx, code, delta)
	e.mu.Unlock()

	e.publish(ctx, pending)
	return product, err
}

// SetStock replaces a product's stock with an absolute value
func (e *OrderEngine) SetStock(ctx context.Context, code string, stock int) (product models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.SetStock",
		attribute.String("product_code", code),
		attribute.Int("stock", stock))
	defer func() { util.EndSpan(span, err) }()

	if stock < 0 {
		return models.Product{}, fmt.Errorf("%w: stock must not be negative", models.ErrInvalidProduct)
	}

	e.mu.Lock()
	current, err := e.catalog.Get(code)
	if err != nil {
		e.mu.Unlock()
		return models.Product{}, err
	}
	product, pending, err := e.adjustStockLocked(ctx, code, stock-current.Stock)
	e.mu.Unlock()

	e.publish(ctx, pending)
	return product, err
}

func (e *OrderEngine) adjustStockLocked(ctx context.Context, code string, delta int) (models.Product, []pendingEvent, error) {
	stock, clamped, err := e.catalog.AdjustStock(code, delta)
	if err != nil {
		return models.Product{}, nil, err
	}
	if clamped {
		util.StockClampedTotal.WithLabelValues(code).Inc()
		e.logger.Warn("Stock adjustment clamped at zero",
			zap.String("product_code", code),
			zap.Int("delta", delta))
	}

	p, _ := e.catalog.Get(code)
	pending := []pendingEvent{stockAdjusted(code, delta, stock, clamped, e.now())}
	return p, pending, e.persistLocked(ctx)
}

// GetProduct returns a copy of one product
func (e *OrderEngine) GetProduct(code string) (models.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Get(code)
}

// Products lists the whole catalog in insertion order
func (e *OrderEngine) Products() iter.Seq[models.Product] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Clone().List()
}

// ProductsByCategory lists the products of one category
func (e *OrderEngine) ProductsByCategory(category models.Category) iter.Seq[models.Product] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Clone().ListByCategory(category)
}

// AvailableProducts lists the products with stock left
func (e *OrderEngine) AvailableProducts() iter.Seq[models.Product] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Clone().ListAvailable()
}

package catalog

import (
	"fmt"
	"iter"

	"cafeteria-service/internal/models"
)

// Catalog owns the sellable products and their stock counters.
// It is not safe for concurrent use; the order engine serializes access.
type Catalog struct {
	products map[string]*models.Product
	codes    []string
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{products: make(map[string]*models.Product)}
}

// Add inserts the product or replaces the entry with the same code
func (c *Catalog) Add(p models.Product) {
	stored := p.Clone()
	if _, ok := c.products[p.Code]; !ok {
		c.codes = append(c.codes, p.Code)
	}
	c.products[p.Code] = &stored
}

// AdjustStock adds delta to the product's stock, clamping at zero.
// It returns the resulting stock and whether the clamp swallowed part of the delta.
func (c *Catalog) AdjustStock(code string, delta int) (stock int, clamped bool, err error) {
	p, ok := c.products[code]
	if !ok {
		return 0, false, fmt.Errorf("%w: %s", models.ErrProductNotFound, code)
	}

	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
		clamped = true
	}
	return p.Stock, clamped, nil
}

// Get returns a copy of the product with the given code
func (c *Catalog) Get(code string) (models.Product, error) {
	p, ok := c.products[code]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", models.ErrProductNotFound, code)
	}
	return p.Clone(), nil
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.codes)
}

// List yields every product in insertion order
func (c *Catalog) List() iter.Seq[models.Product] {
	return c.filter(func(models.Product) bool { return true })
}

// ListByCategory yields the products tagged with category
func (c *Catalog) ListByCategory(category models.Category) iter.Seq[models.Product] {
	return c.filter(func(p models.Product) bool { return p.Category == category })
}

// ListAvailable yields the products with stock left
func (c *Catalog) ListAvailable() iter.Seq[models.Product] {
	return c.filter(func(p models.Product) bool { return p.Stock > 0 })
}

func (c *Catalog) filter(keep func(models.Product) bool) iter.Seq[models.Product] {
	return func(yield func(models.Product) bool) {
		for _, code := range c.codes {
			p := c.products[code]
			if !keep(*p) {
				continue
			}
			if !yield(p.Clone()) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the catalog
func (c *Catalog) Clone() *Catalog {
	out := New()
	for p := range c.List() {
		out.Add(p)
	}
	return out
}

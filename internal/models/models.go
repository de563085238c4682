package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category tags the kind of product and selects its variant payload
type Category string

const (
	CategoryBeverage Category = "beverage"
	CategoryDessert  Category = "dessert"
)

// ParseCategory maps a user supplied category name onto a Category
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryBeverage:
		return CategoryBeverage, nil
	case CategoryDessert:
		return CategoryDessert, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// BeverageAttrs holds beverage specific attributes
type BeverageAttrs struct {
	Size string `json:"size"`
}

// DessertAttrs holds dessert specific attributes
type DessertAttrs struct {
	Ingredients []string `json:"ingredients"`
}

// Product represents a sellable item in the catalog.
// Exactly one of Beverage or Dessert is set, matching Category.
type Product struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category Category        `json:"category"`
	Beverage *BeverageAttrs  `json:"beverage,omitempty"`
	Dessert  *DessertAttrs   `json:"dessert,omitempty"`
}

// NewBeverage creates a beverage product
func NewBeverage(code, name string, price decimal.Decimal, stock int, size string) Product {
	return Product{
		Code:     code,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: CategoryBeverage,
		Beverage: &BeverageAttrs{Size: size},
	}
}

// NewDessert creates a dessert product
func NewDessert(code, name string, price decimal.Decimal, stock int, ingredients ...string) Product {
	return Product{
		Code:     code,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: CategoryDessert,
		Dessert:  &DessertAttrs{Ingredients: append([]string(nil), ingredients...)},
	}
}

// Clone returns a deep copy so callers cannot reach into catalog state
func (p Product) Clone() Product {
	out := p
	if p.Beverage != nil {
		b := *p.Beverage
		out.Beverage = &b
	}
	if p.Dessert != nil {
		out.Dessert = &DessertAttrs{Ingredients: append([]string(nil), p.Dessert.Ingredients...)}
	}
	return out
}

// Validate checks the fields an administrator supplies when adding a product.
// A missing variant payload is filled with an empty one.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	switch p.Category {
	case CategoryBeverage:
		p.Dessert = nil
		if p.Beverage == nil {
			p.Beverage = &BeverageAttrs{}
		}
	case CategoryDessert:
		p.Beverage = nil
		if p.Dessert == nil {
			p.Dessert = &DessertAttrs{}
		}
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, p.Category)
	}
	return nil
}

// Ingredients returns the dessert ingredient list joined for display
func (p Product) Ingredients() string {
	if p.Dessert == nil {
		return ""
	}
	return strings.Join(p.Dessert.Ingredients, ", ")
}

// Customer represents a registered customer.
// OrderNumbers is a back-reference list in insertion order; orders are owned by the engine.
type Customer struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	OrderNumbers []int64 `json:"order_numbers"`
}

// Clone returns a copy with its own order list
func (c Customer) Clone() Customer {
	c.OrderNumbers = append([]int64(nil), c.OrderNumbers...)
	return c
}

// Employee represents a staff account
type Employee struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	SecretHash []byte `json:"-"`
}

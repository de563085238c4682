package service

import (
	"context"
	"fmt"

	"cafeteria-service/internal/catalog"
	"cafeteria-service/internal/directory"
	"cafeteria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func demoProducts() []models.Product {
	return []models.Product{
		models.NewBeverage("B001", "Americano", price("2.50"), 50, "Medium"),
		models.NewBeverage("B002", "Cappuccino", price("3.50"), 30, "Medium"),
		models.NewBeverage("B003", "Hot Chocolate", price("3.00"), 25, "Medium"),
		models.NewBeverage("B004", "Green Tea", price("2.00"), 40, "Medium"),
		models.NewBeverage("B005", "Fruit Smoothie", price("4.00"), 20, "Large"),
		models.NewBeverage("B006", "Mocha", price("3.75"), 35, "Medium"),
		models.NewBeverage("B007", "Latte", price("3.25"), 30, "Large"),
		models.NewBeverage("B008", "Chamomile Tea", price("2.25"), 25, "Medium"),
		models.NewBeverage("B009", "Fresh Juice", price("3.50"), 20, "Large"),
		models.NewBeverage("B010", "Vanilla Frappe", price("4.50"), 15, "Large"),

		models.NewDessert("P001", "Croissant", price("2.00"), 20, "flour", "butter", "sugar"),
		models.NewDessert("P002", "Donut", price("1.50"), 15, "flour", "sugar", "chocolate"),
		models.NewDessert("P003", "Cheesecake", price("3.50"), 10, "cream cheese", "cookie", "sugar"),
		models.NewDessert("P004", "Brownie", price("2.50"), 12, "chocolate", "walnuts", "flour"),
		models.NewDessert("P005", "Blueberry Muffin", price("2.75"), 18, "flour", "blueberries", "sugar"),
		models.NewDessert("P006", "Apple Pie", price("4.00"), 8, "apple", "dough", "cinnamon"),
		models.NewDessert("P007", "Chocolate Cookies", price("1.75"), 25, "flour", "chocolate", "butter"),
		models.NewDessert("P008", "Flan", price("3.00"), 12, "egg", "milk", "sugar"),
		models.NewDessert("P009", "Tiramisu", price("4.50"), 10, "coffee", "mascarpone", "ladyfingers"),
		models.NewDessert("P010", "Profiteroles", price("3.75"), 8, "cream", "dough", "chocolate"),
	}
}

type demoEmployee struct {
	name, phone, role, username string
}

var demoEmployees = []demoEmployee{
	{name: "Amanda Sanchez", phone: "555-1234", role: "Barista", username: "amanda"},
	{name: "Carlos Castillo", phone: "555-5678", role: "Cashier", username: "carlos"},
	{name: "Guadalupe Mino", phone: "555-0000", role: "Administrator", username: "admin"},
}

// seed installs the demonstration catalog and staff into an empty engine and saves it.
// Each demo employee's secret is their username.
func (e *OrderEngine) seed(ctx context.Context) error {
	cat := catalog.New()
	for _, p := range demoProducts() {
		cat.Add(p)
	}

	dir := directory.New(e.hashCost)
	for _, d := range demoEmployees {
		if _, err := dir.RegisterEmployee(d.name, d.phone, d.role, d.username, d.username); err != nil {
			return fmt.Errorf("failed to seed employee %s: %w", d.username, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.catalog = cat
	e.directory = dir
	e.orders = nil
	e.index = make(map[int64]*models.Order)
	e.lastNumber = 0

	e.logger.Info("Demonstration data seeded",
		zap.Int("products", cat.Len()),
		zap.Int("employees", len(demoEmployees)))
	return e.persistLocked(ctx)
}

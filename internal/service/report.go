package service

import (
	"cafeteria-service/internal/models"

	"github.com/shopspring/decimal"
)

// SalesReport totals the delivered orders and counts the units sold per product.
// Orders in any other status do not count.
func (e *OrderEngine) SalesReport() models.SalesReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := models.SalesReport{
		TotalSales: decimal.Zero,
		UnitsSold:  make(map[string]int),
	}
	for _, o := range e.orders {
		if o.Status != models.StatusDelivered {
			continue
		}
		report.DeliveredCount++
		report.TotalSales = report.TotalSales.Add(o.Total)
		for _, l := range o.Lines {
			report.UnitsSold[l.ProductCode] += l.Quantity
		}
	}
	return report
}

// CustomerSummaries lists every customer with the count and value of the orders in their history
func (e *OrderEngine) CustomerSummaries() []models.CustomerSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	customers := e.directory.Customers()
	out := make([]models.CustomerSummary, 0, len(customers))
	for _, c := range customers {
		s := models.CustomerSummary{
			ID:         c.ID,
			Name:       c.Name,
			Phone:      c.Phone,
			TotalSpent: decimal.Zero,
		}
		for _, n := range c.OrderNumbers {
			if o, ok := e.index[n]; ok {
				s.OrderCount++
				s.TotalSpent = s.TotalSpent.Add(o.Total)
			}
		}
		out = append(out, s)
	}
	return out
}

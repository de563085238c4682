package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"cafeteria-service/internal/catalog"
	"cafeteria-service/internal/directory"
	"cafeteria-service/internal/models"

	"go.uber.org/zap"
)

const snapshotVersion = 1

// ErrCorruptSnapshot is returned when a stored snapshot cannot be restored
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

type snapshotDoc struct {
	Version    int              `json:"version"`
	LastNumber int64            `json:"last_order_number"`
	Products   []models.Product `json:"products"`
	Customers  []customerRecord `json:"customers"`
	Employees  []employeeRecord `json:"employees"`
	Orders     []models.Order   `json:"orders"`
}

type customerRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	OrderNumbers []int64 `json:"order_numbers"`
}

type employeeRecord struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	SecretHash []byte `json:"secret_hash"`
}

// Snapshot encodes the complete engine state: catalog, directory, orders
// and the order number counter.
func (e *OrderEngine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *OrderEngine) snapshotLocked() ([]byte, error) {
	doc := snapshotDoc{
		Version:    snapshotVersion,
		LastNumber: e.lastNumber,
		Products:   slices.Collect(e.catalog.List()),
		Customers:  []customerRecord{},
		Employees:  []employeeRecord{},
		Orders:     make([]models.Order, 0, len(e.orders)),
	}
	if doc.Products == nil {
		doc.Products = []models.Product{}
	}

	for _, c := range e.directory.Customers() {
		numbers := c.OrderNumbers
		if numbers == nil {
			numbers = []int64{}
		}
		doc.Customers = append(doc.Customers, customerRecord{
			ID:           c.ID,
			Name:         c.Name,
			Phone:        c.Phone,
			OrderNumbers: numbers,
		})
	}
	for _, emp := range e.directory.Employees() {
		doc.Employees = append(doc.Employees, employeeRecord{
			Username:   emp.Username,
			Name:       emp.Name,
			Phone:      emp.Phone,
			Role:       emp.Role,
			SecretHash: emp.SecretHash,
		})
	}
	for _, o := range e.orders {
		cp := o.Clone()
		if cp.Lines == nil {
			cp.Lines = []models.LineItem{}
		}
		doc.Orders = append(doc.Orders, cp)
	}

	blob, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return blob, nil
}

// Restore replaces the engine state with a previously taken snapshot.
// The blob is fully decoded and checked before anything is swapped in;
// on error the current state is untouched.
func (e *OrderEngine) Restore(blob []byte) error {
	var doc snapshotDoc
	if err := json.Unmarshal(blob, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if doc.Version != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, doc.Version)
	}

	cat := catalog.New()
	for _, p := range doc.Products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: product %q: %v", ErrCorruptSnapshot, p.Code, err)
		}
		if _, err := cat.Get(p.Code); err == nil {
			return fmt.Errorf("%w: duplicate product %q", ErrCorruptSnapshot, p.Code)
		}
		cat.Add(p)
	}

	dir := directory.New(e.hashCost)
	for _, c := range doc.Customers {
		if c.ID == "" {
			return fmt.Errorf("%w: customer without identification", ErrCorruptSnapshot)
		}
		err := dir.RestoreCustomer(models.Customer{ID: c.ID, Name: c.Name, Phone: c.Phone, OrderNumbers: c.OrderNumbers})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	}
	for _, r := range doc.Employees {
		if r.Username == "" || len(r.SecretHash) == 0 {
			return fmt.Errorf("%w: incomplete employee record", ErrCorruptSnapshot)
		}
		err := dir.RestoreEmployee(models.Employee{
			Username:   r.Username,
			Name:       r.Name,
			Phone:      r.Phone,
			Role:       r.Role,
			SecretHash: r.SecretHash,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	}

	orders := make([]*models.Order, 0, len(doc.Orders))
	index := make(map[int64]*models.Order, len(doc.Orders))
	for i := range doc.Orders {
		o := &doc.Orders[i]
		if err := checkRestoredOrder(o, doc.LastNumber, index, dir); err != nil {
			return err
		}
		orders = append(orders, o)
		index[o.Number] = o
	}
	for _, c := range dir.Customers() {
		for _, n := range c.OrderNumbers {
			if _, ok := index[n]; !ok {
				return fmt.Errorf("%w: customer %s references unknown order %d", ErrCorruptSnapshot, c.ID, n)
			}
		}
	}

	e.mu.Lock()
	e.catalog = cat
	e.directory = dir
	e.orders = orders
	e.index = index
	e.lastNumber = doc.LastNumber
	e.mu.Unlock()

	e.logger.Info("Snapshot restored",
		zap.Int("products", cat.Len()),
		zap.Int("orders", len(orders)),
		zap.Int64("last_order_number", doc.LastNumber))
	return nil
}

func checkRestoredOrder(o *models.Order, lastNumber int64, seen map[int64]*models.Order, dir *directory.Directory) error {
	if o.Number <= 0 || o.Number > lastNumber {
		return fmt.Errorf("%w: order number %d outside 1..%d", ErrCorruptSnapshot, o.Number, lastNumber)
	}
	if _, dup := seen[o.Number]; dup {
		return fmt.Errorf("%w: duplicate order %d", ErrCorruptSnapshot, o.Number)
	}
	if _, err := models.ParseStatus(string(o.Status)); err != nil {
		return fmt.Errorf("%w: order %d: %v", ErrCorruptSnapshot, o.Number, err)
	}
	c, ok := dir.FindCustomer(o.CustomerID)
	if !ok {
		return fmt.Errorf("%w: order %d belongs to unknown customer %q", ErrCorruptSnapshot, o.Number, o.CustomerID)
	}
	if !slices.Contains(c.OrderNumbers, o.Number) {
		return fmt.Errorf("%w: order %d missing from customer %s history", ErrCorruptSnapshot, o.Number, c.ID)
	}
	if total := o.ComputeTotal(); !total.Equal(o.Total) {
		return fmt.Errorf("%w: order %d total %s does not match lines %s", ErrCorruptSnapshot, o.Number, o.Total, total)
	}
	return nil
}

// Load restores the last saved snapshot. With no snapshot stored it seeds the
// demonstration dataset and saves it, reporting seeded=true.
func (e *OrderEngine) Load(ctx context.Context) (seeded bool, err error) {
	if e.store == nil {
		return true, e.seed(ctx)
	}

	blob, err := e.store.Load(ctx)
	switch {
	case errors.Is(err, models.ErrNoSnapshot):
		e.logger.Info("No snapshot found, seeding demonstration data",
			zap.String("backend", e.store.Backend()))
		return true, e.seed(ctx)
	case err != nil:
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return false, e.Restore(blob)
}

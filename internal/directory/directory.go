package directory

import (
	"fmt"
	"strings"

	"cafeteria-service/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Directory holds the customer and employee registries.
// It is not safe for concurrent use; the order engine serializes access.
type Directory struct {
	customers   map[string]*models.Customer
	customerIDs []string
	employees   map[string]*models.Employee
	usernames   []string
	hashCost    int
}

// New creates an empty directory hashing employee secrets with the given bcrypt cost
func New(hashCost int) *Directory {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &Directory{
		customers: make(map[string]*models.Customer),
		employees: make(map[string]*models.Employee),
		hashCost:  hashCost,
	}
}

// RegisterCustomer adds a customer; the identification must be unused
func (d *Directory) RegisterCustomer(id, name, phone string) (models.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Customer{}, models.ErrMissingIdentity
	}
	if _, ok := d.customers[id]; ok {
		return models.Customer{}, fmt.Errorf("%w: %s", models.ErrDuplicateID, id)
	}

	c := &models.Customer{ID: id, Name: name, Phone: phone}
	d.customers[id] = c
	d.customerIDs = append(d.customerIDs, id)
	return c.Clone(), nil
}

// FindCustomer looks a customer up by identification
func (d *Directory) FindCustomer(id string) (models.Customer, bool) {
	c, ok := d.customers[id]
	if !ok {
		return models.Customer{}, false
	}
	return c.Clone(), true
}

// AppendOrder records an order number in the customer's history
func (d *Directory) AppendOrder(customerID string, number int64) error {
	c, ok := d.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrCustomerNotFound, customerID)
	}
	c.OrderNumbers = append(c.OrderNumbers, number)
	return nil
}

// RemoveOrder drops an order number from the customer's history
func (d *Directory) RemoveOrder(customerID string, number int64) {
	c, ok := d.customers[customerID]
	if !ok {
		return
	}
	for i, n := range c.OrderNumbers {
		if n == number {
			c.OrderNumbers = append(c.OrderNumbers[:i:i], c.OrderNumbers[i+1:]...)
			return
		}
	}
}

// Customers returns every customer in registration order
func (d *Directory) Customers() []models.Customer {
	out := make([]models.Customer, 0, len(d.customerIDs))
	for _, id := range d.customerIDs {
		out = append(out, d.customers[id].Clone())
	}
	return out
}

// RegisterEmployee adds an employee account; the username must be unused
func (d *Directory) RegisterEmployee(name, phone, role, username, secret string) (models.Employee, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Employee{}, models.ErrMissingIdentity
	}
	if _, ok := d.employees[username]; ok {
		return models.Employee{}, fmt.Errorf("%w: %s", models.ErrDuplicateUsername, username)
	}

	hash, err := HashSecret(secret, d.hashCost)
	if err != nil {
		return models.Employee{}, err
	}

	e := &models.Employee{Username: username, Name: name, Phone: phone, Role: role, SecretHash: hash}
	d.putEmployee(e)
	return *e, nil
}

// RestoreEmployee inserts an employee whose secret is already hashed
func (d *Directory) RestoreEmployee(e models.Employee) error {
	if _, ok := d.employees[e.Username]; ok {
		return fmt.Errorf("%w: %s", models.ErrDuplicateUsername, e.Username)
	}
	e.SecretHash = append([]byte(nil), e.SecretHash...)
	d.putEmployee(&e)
	return nil
}

// RestoreCustomer inserts a customer together with its order history
func (d *Directory) RestoreCustomer(c models.Customer) error {
	if _, ok := d.customers[c.ID]; ok {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, c.ID)
	}
	cp := c.Clone()
	d.customers[c.ID] = &cp
	d.customerIDs = append(d.customerIDs, c.ID)
	return nil
}

func (d *Directory) putEmployee(e *models.Employee) {
	d.employees[e.Username] = e
	d.usernames = append(d.usernames, e.Username)
}

// FindEmployee looks an employee up by username
func (d *Directory) FindEmployee(username string) (models.Employee, bool) {
	e, ok := d.employees[username]
	if !ok {
		return models.Employee{}, false
	}
	return *e, true
}

// HashSecret hashes an employee secret with bcrypt
func HashSecret(secret string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}
	return hash, nil
}

// CheckSecret reports whether secret matches the employee's stored hash
func CheckSecret(e models.Employee, secret string) bool {
	return bcrypt.CompareHashAndPassword(e.SecretHash, []byte(secret)) == nil
}

// HashCost returns the bcrypt cost used for new employees
func (d *Directory) HashCost() int {
	return d.hashCost
}

// Employees returns every employee in registration order
func (d *Directory) Employees() []models.Employee {
	out := make([]models.Employee, 0, len(d.usernames))
	for _, u := range d.usernames {
		out = append(out, *d.employees[u])
	}
	return out
}

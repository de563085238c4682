package service

import (
	"context"
	"strings"

	"cafeteria-service/internal/directory"
	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"go.uber.org/zap"
)

// RegisterCustomer adds a customer with a unique identification
func (e *OrderEngine) RegisterCustomer(ctx context.Context, id, name, phone string) (customer models.Customer, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.RegisterCustomer")
	defer func() { util.EndSpan(span, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.directory.RegisterCustomer(id, name, phone)
	if err != nil {
		return models.Customer{}, err
	}
	e.logger.Info("Customer registered", zap.String("customer_id", c.ID))
	return c, e.persistLocked(ctx)
}

// FindCustomer looks a customer up by identification
func (e *OrderEngine) FindCustomer(id string) (models.Customer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.directory.FindCustomer(id)
}

// RegisterEmployee adds an employee account. The secret is hashed before the lock is taken.
func (e *OrderEngine) RegisterEmployee(ctx context.Context, name, phone, role, username, secret string) (employee models.Employee, err error) {
	ctx, span := util.StartSpan(ctx, "OrderEngine.RegisterEmployee")
	defer func() { util.EndSpan(span, err) }()

	username = strings.TrimSpace(username)
	if username == "" {
		return models.Employee{}, models.ErrMissingIdentity
	}
	hash, err := directory.HashSecret(secret, e.hashCost)
	if err != nil {
		return models.Employee{}, err
	}

	emp := models.Employee{Username: username, Name: name, Phone: phone, Role: role, SecretHash: hash}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.directory.RestoreEmployee(emp); err != nil {
		return models.Employee{}, err
	}
	e.logger.Info("Employee registered",
		zap.String("username", username),
		zap.String("role", role))
	return emp, e.persistLocked(ctx)
}

// FindEmployee looks an employee up by username
func (e *OrderEngine) FindEmployee(username string) (models.Employee, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.directory.FindEmployee(username)
}

// ValidateEmployee returns the employee only if username and secret match.
// The hash comparison runs outside the engine lock.
func (e *OrderEngine) ValidateEmployee(username, secret string) (models.Employee, bool) {
	emp, ok := e.FindEmployee(username)
	if !ok || !directory.CheckSecret(emp, secret) {
		e.logger.Debug("Employee validation failed", zap.String("username", username))
		return models.Employee{}, false
	}
	return emp, true
}

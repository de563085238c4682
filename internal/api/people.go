package api

import (
	"net/http"

	"cafeteria-service/internal/models"

	"github.com/gin-gonic/gin"
)

type customerRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

type employeeRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required"`
	Username string `json:"username" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

// registerCustomer adds a customer
func (h *Handler) registerCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	customer, err := h.engine.RegisterCustomer(c.Request.Context(), req.ID, req.Name, req.Phone)
	h.respond(c, http.StatusCreated, customer, err)
}

// getCustomer returns one customer
func (h *Handler) getCustomer(c *gin.Context) {
	customer, ok := h.engine.FindCustomer(c.Param("id"))
	if !ok {
		h.writeError(c, models.ErrCustomerNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// customerOrders returns the orders in a customer's history
func (h *Handler) customerOrders(c *gin.Context) {
	orders, err := h.engine.CustomerOrders(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// registerEmployee adds an employee account
func (h *Handler) registerEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	emp, err := h.engine.RegisterEmployee(c.Request.Context(), req.Name, req.Phone, req.Role, req.Username, req.Secret)
	h.respond(c, http.StatusCreated, emp, err)
}

// login checks employee credentials
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	emp, ok := h.engine.ValidateEmployee(req.Username, req.Secret)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or secret"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": emp})
}

package api

import (
	"iter"
	"net/http"
	"strconv"

	"cafeteria-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
	Category    string          `json:"category" binding:"required"`
	Size        string          `json:"size"`
	Ingredients []string        `json:"ingredients"`
}

type stockRequest struct {
	Delta *int `json:"delta"`
	Stock *int `json:"stock"`
}

// listProducts lists the catalog, optionally by ?category= and ?available=true
func (h *Handler) listProducts(c *gin.Context) {
	var seq iter.Seq[models.Product]
	if s := c.Query("category"); s != "" {
		cat, err := models.ParseCategory(s)
		if err != nil {
			badRequest(c, "Invalid category", err)
			return
		}
		seq = h.engine.ProductsByCategory(cat)
	} else {
		seq = h.engine.Products()
	}

	availableOnly := false
	if s := c.Query("available"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			badRequest(c, "Invalid available flag", err)
			return
		}
		availableOnly = v
	}

	out := []models.Product{}
	for p := range seq {
		if availableOnly && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// getProduct returns one product
func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.engine.GetProduct(c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// putProduct adds a product or replaces the one with the same code
func (h *Handler) putProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	cat, err := models.ParseCategory(req.Category)
	if err != nil {
		badRequest(c, "Invalid category", err)
		return
	}

	var p models.Product
	switch cat {
	case models.CategoryBeverage:
		p = models.NewBeverage(c.Param("code"), req.Name, req.Price, req.Stock, req.Size)
	case models.CategoryDessert:
		p = models.NewDessert(c.Param("code"), req.Name, req.Price, req.Stock, req.Ingredients...)
	}

	saved, err := h.engine.AddProduct(c.Request.Context(), p)
	h.respond(c, http.StatusOK, saved, err)
}

// adjustStock applies {"delta": n} or sets {"stock": n}
func (h *Handler) adjustStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if (req.Delta == nil) == (req.Stock == nil) {
		badRequest(c, "Exactly one of delta or stock is required", nil)
		return
	}

	var (
		p   models.Product
		err error
	)
	if req.Delta != nil {
		p, err = h.engine.AdjustStock(c.Request.Context(), c.Param("code"), *req.Delta)
	} else {
		p, err = h.engine.SetStock(c.Request.Context(), c.Param("code"), *req.Stock)
	}
	h.respond(c, http.StatusOK, p, err)
}

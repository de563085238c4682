package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"cafeteria-service/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createOrderRequest struct {
	CustomerID string               `json:"customer_id" binding:"required"`
	Items      []models.ItemRequest `json:"items" binding:"required,min=1,dive"`
}

type advanceRequest struct {
	Username string `json:"username" binding:"required"`
}

type orderResponse struct {
	models.Order
	Receipt        []string `json:"receipt"`
	DeliveryDetail string   `json:"delivery_detail,omitempty"`
}

func newOrderResponse(o models.Order) orderResponse {
	receipt := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		receipt = append(receipt, l.String())
	}
	return orderResponse{Order: o, Receipt: receipt, DeliveryDetail: o.DeliveryDetail()}
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if key != "" && h.idempotency != nil {
		if h.replayIdempotent(c, key) {
			return
		}
	}

	order, err := h.engine.CreateOrder(c.Request.Context(), req.CustomerID, req.Items)
	if order == nil {
		h.releaseIdempotent(c, key)
		h.writeError(c, err)
		return
	}

	body := gin.H{"data": newOrderResponse(*order)}
	if err != nil {
		body["warning"] = err.Error()
	}
	h.storeIdempotent(c, key, body)
	c.JSON(http.StatusCreated, body)
}

// replayIdempotent answers the request from a stored response or rejects a concurrent retry.
// It returns false when the request should run.
func (h *Handler) replayIdempotent(c *gin.Context, key string) bool {
	ctx := c.Request.Context()

	stored, found, pending, err := h.idempotency.GetIdempotentResponse(ctx, key)
	if err != nil {
		h.logger.Warn("Idempotency lookup failed, processing request", zap.Error(err))
		return false
	}
	if found && pending {
		c.JSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is in progress"})
		return true
	}
	if found {
		h.logger.Info("Duplicate order request detected", zap.String("idempotency_key", key))
		c.Header("Idempotent-Replayed", "true")
		c.Data(http.StatusCreated, "application/json; charset=utf-8", stored)
		return true
	}

	ok, err := h.idempotency.ReserveIdempotencyKey(ctx, key, h.idemTTL)
	if err != nil {
		h.logger.Warn("Idempotency reservation failed, processing request", zap.Error(err))
		return false
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is in progress"})
		return true
	}
	return false
}

func (h *Handler) storeIdempotent(c *gin.Context, key string, body gin.H) {
	if key == "" || h.idempotency == nil {
		return
	}
	encoded, err := json.Marshal(body)
	if err == nil {
		err = h.idempotency.StoreIdempotentResponse(c.Request.Context(), key, encoded, h.idemTTL)
	}
	if err != nil {
		h.logger.Warn("Failed to store idempotent response", zap.String("idempotency_key", key), zap.Error(err))
	}
}

func (h *Handler) releaseIdempotent(c *gin.Context, key string) {
	if key == "" || h.idempotency == nil {
		return
	}
	if err := h.idempotency.ReleaseIdempotencyKey(c.Request.Context(), key); err != nil {
		h.logger.Warn("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(err))
	}
}

// listOrders lists orders, optionally filtered by ?status=
func (h *Handler) listOrders(c *gin.Context) {
	var filter models.Status
	if s := c.Query("status"); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			badRequest(c, "Invalid status", err)
			return
		}
		filter = st
	}

	out := []orderResponse{}
	for o := range h.engine.ListOrders(filter) {
		out = append(out, newOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// getOrder handles get order by number
func (h *Handler) getOrder(c *gin.Context) {
	number, ok := orderNumberParam(c)
	if !ok {
		return
	}

	order, err := h.engine.GetOrder(number)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newOrderResponse(order)})
}

// addLine adds a line to a New order
func (h *Handler) addLine(c *gin.Context) {
	number, ok := orderNumberParam(c)
	if !ok {
		return
	}
	var item models.ItemRequest
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.engine.ModifyOrder(c.Request.Context(), number, models.LineAdd, item)
	h.respondOrder(c, order, err)
}

// removeLine removes the first line for a product from a New order
func (h *Handler) removeLine(c *gin.Context) {
	number, ok := orderNumberParam(c)
	if !ok {
		return
	}

	item := models.ItemRequest{ProductCode: c.Param("code")}
	order, err := h.engine.ModifyOrder(c.Request.Context(), number, models.LineRemove, item)
	h.respondOrder(c, order, err)
}

func (h *Handler) advance(t models.Transition) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, ok := orderNumberParam(c)
		if !ok {
			return
		}
		var req advanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body", err)
			return
		}

		order, err := h.engine.Advance(c.Request.Context(), number, req.Username, t)
		h.respondOrder(c, order, err)
	}
}

func (h *Handler) respondOrder(c *gin.Context, order *models.Order, err error) {
	if order == nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, newOrderResponse(*order), err)
}

// deleteOrder removes an order without restocking
func (h *Handler) deleteOrder(c *gin.Context) {
	number, ok := orderNumberParam(c)
	if !ok {
		return
	}

	err := h.engine.DeleteOrder(c.Request.Context(), number)
	h.respond(c, http.StatusOK, gin.H{"deleted": number}, err)
}

func (h *Handler) orderAudit(c *gin.Context) {
	number, ok := orderNumberParam(c)
	if !ok {
		return
	}
	if h.audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audit log is not enabled"})
		return
	}

	entries, err := h.audit.AuditTrail(c.Request.Context(), number)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// salesReport summarises delivered orders
func (h *Handler) salesReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.engine.SalesReport()})
}

// customerReport lists customers with their order count and spend
func (h *Handler) customerReport(c *gin.Context) {
	summaries := h.engine.CustomerSummaries()
	slices.SortStableFunc(summaries, func(a, b models.CustomerSummary) int {
		return b.TotalSpent.Cmp(a.TotalSpent)
	})
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

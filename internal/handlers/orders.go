package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

type OrdersHandler struct {
	orders *services.OrderService
}

func NewOrdersHandler(orders *services.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// CreateOrder godoc
// @Summary     Create an order
// @Description Creates a pending, unassigned order. The total is computed from the line items. Admin only.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateOrderRequest true "Order"
// @Success     201 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), s.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders godoc
// @Summary     List orders
// @Description Lists every order, newest first, optionally filtered by status. Admin only.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       status query string false "pending, in_progress, completed, delivered or cancelled"
// @Success     200 {object} models.OrderListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	var status *models.OrderStatus
	if v := c.Query("status"); v != "" {
		st := models.OrderStatus(v)
		status = &st
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders})
}

// GetOrder godoc
// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListProgress godoc
// @Summary     Order progress history
// @Description Progress entries for an order, most recent first, with the reporting worker.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Success     200 {object} models.ProgressListResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id}/progress [get]
func (h *OrdersHandler) ListProgress(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	entries, err := h.orders.ListProgress(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProgressListResponse{Entries: entries})
}

// SetStatus godoc
// @Summary     Override order status
// @Description Sets any status on a non-terminal order. Moving to pending or cancelled clears the assignment. Admin only.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Param       request body models.SetStatusRequest true "New status"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/status [patch]
func (h *OrdersHandler) SetStatus(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req models.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orders.SetOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

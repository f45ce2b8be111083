package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

// WorkerHandler serves the claim/release/progress workflow.
type WorkerHandler struct {
	orders *services.OrderService
}

func NewWorkerHandler(orders *services.OrderService) *WorkerHandler {
	return &WorkerHandler{orders: orders}
}

// ListAvailable godoc
// @Summary     Orders available to claim
// @Description Pending orders with no assignee, newest first.
// @Tags        worker
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders/available [get]
func (h *WorkerHandler) ListAvailable(c *gin.Context) {
	orders, err := h.orders.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders})
}

// ListMine godoc
// @Summary     Orders assigned to the caller
// @Description Orders assigned to the caller, excluding cancelled ones, most recently claimed first.
// @Tags        worker
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders/mine [get]
func (h *WorkerHandler) ListMine(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListAssignedTo(c.Request.Context(), s.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders})
}

// Claim godoc
// @Summary     Claim an order
// @Description Atomically assigns a pending, unassigned order to the caller and moves it to in_progress.
// @Tags        worker
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse "already assigned or not pending"
// @Router      /orders/{order_id}/claim [post]
func (h *WorkerHandler) Claim(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.ClaimOrder(c.Request.Context(), orderID, s.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Release godoc
// @Summary     Release an order
// @Description Returns an in-progress order held by the caller to the pending pool.
// @Tags        worker
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse "not assigned to caller"
// @Router      /orders/{order_id}/release [post]
func (h *WorkerHandler) Release(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.ReleaseOrder(c.Request.Context(), orderID, s.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RecordProgress godoc
// @Summary     Report progress
// @Description Appends a progress note and moves the order to the reported status. Only the assignee may report.
// @Tags        worker
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Param       request body models.ProgressRequest true "Progress"
// @Success     201 {object} models.ProgressResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/progress [post]
func (h *WorkerHandler) RecordProgress(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req models.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, entry, err := h.orders.RecordProgress(c.Request.Context(), orderID, s.UserID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ProgressResponse{Order: order, Entry: entry})
}

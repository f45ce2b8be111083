package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"order-desk-backend/internal/middleware"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

// respondError maps a service error onto the HTTP status the clients
// expect.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var berr *services.BackendError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Message: verr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden", Message: "order is not assigned to you"})
	case errors.Is(err, services.ErrAlreadyAssigned),
		errors.Is(err, services.ErrNotAssignedToCaller),
		errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "conflict", Message: err.Error()})
	case errors.As(err, &berr):
		log.Printf("Backend error: %v", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: berr.Op + " failed", Message: berr.Err.Error()})
	default:
		log.Printf("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error", Message: err.Error()})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
}

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return uuid.Nil, false
	}
	return id, true
}

func session(c *gin.Context) (*services.Session, bool) {
	s := middleware.SessionFrom(c)
	if s == nil || s.Profile == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return nil, false
	}
	return s, true
}

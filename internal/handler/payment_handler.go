package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/payzen"
	"github.com/Horanet/payment-payzen/internal/service"
)

type PaymentHandler struct {
	service *service.PaymentService
	logger  *zap.Logger
}

func NewPaymentHandler(service *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form, err := h.service.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, payzen.ErrUnknownCurrency) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to create payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
		return
	}

	c.JSON(http.StatusCreated, form)
}

// GetPayment handles GET /api/v1/payments/:reference
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	reference := c.Param("reference")

	tx, err := h.service.GetPayment(c.Request.Context(), reference)
	if err != nil {
		var lookupErr *payzen.LookupError
		if errors.As(err, &lookupErr) && lookupErr.Matches == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		h.logger.Error("failed to get payment", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

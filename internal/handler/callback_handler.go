package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/metrics"
	"github.com/Horanet/payment-payzen/internal/payzen"
	"github.com/Horanet/payment-payzen/internal/service"
)

type CallbackHandler struct {
	callbacks *service.CallbackService
	logger    *zap.Logger

	// RedirectURL is where the customer's browser lands after the gateway
	// posts back, regardless of the processing outcome.
	RedirectURL string
}

func NewCallbackHandler(callbacks *service.CallbackService, redirectURL string, logger *zap.Logger) *CallbackHandler {
	if redirectURL == "" {
		redirectURL = "/"
	}
	return &CallbackHandler{
		callbacks:   callbacks,
		logger:      logger,
		RedirectURL: redirectURL,
	}
}

// Return handles the gateway's IPN on /payment/payzen/return, over POST or
// GET depending on the configured vads_return_mode. Errors are for the
// operator, not the customer: the browser is always redirected and the
// gateway always gets a non-error status, otherwise it retries the IPN.
func (h *CallbackHandler) Return(c *gin.Context) {
	start := time.Now()

	fields := payzen.ParseCallback(callbackValues(c))

	// Callbacks on this route arrived over the public network; only the
	// in-process reconciliation poller may skip signature verification.
	_, err := h.callbacks.Process(c.Request.Context(), fields, false)

	duration := time.Since(start)
	metrics.CallbackDuration.Observe(duration.Seconds())

	if err != nil {
		h.logCallbackError(fields, err, duration)
	} else {
		h.logger.Info("payzen callback processed",
			zap.String("order_id", fields.OrderID),
			zap.Duration("duration", duration))
	}

	c.Redirect(http.StatusSeeOther, h.RedirectURL)
}

func callbackValues(c *gin.Context) url.Values {
	if c.Request.Method == http.MethodGet {
		return c.Request.URL.Query()
	}
	if err := c.Request.ParseForm(); err != nil {
		return url.Values{}
	}
	return c.Request.PostForm
}

func (h *CallbackHandler) logCallbackError(fields payzen.CallbackFields, err error, duration time.Duration) {
	baseFields := []zap.Field{
		zap.String("order_id", fields.OrderID),
		zap.Duration("duration", duration),
		zap.Error(err),
	}

	var mismatchErr *payzen.ValidationMismatchError
	switch {
	case errors.Is(err, payzen.ErrSignatureMismatch):
		h.logger.Error("payzen callback authentication failed", baseFields...)
	case errors.As(err, &mismatchErr):
		h.logger.Error("payzen callback validation mismatches",
			append(baseFields, zap.Int("mismatches", len(mismatchErr.Mismatches)))...)
	default:
		h.logger.Error("payzen callback processing failed", baseFields...)
	}
}

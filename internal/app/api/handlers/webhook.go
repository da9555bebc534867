package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	webhooksvc "github.com/arbops/billing/internal/app/service/webhook"
	"github.com/arbops/billing/pkg/logctx"
)

// webhookAck is the response shape the payment provider expects; it does
// not use the dashboard API envelope.
type webhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// @Summary      Payment Provider Webhook
// @Description  Receives payment/subscription notifications. The raw body must be signed with HMAC-SHA256 in the X-Webhook-Signature header.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body webhooksvc.PaymentEvent true "Payment event envelope"
// @Success      200  {object}  handlers.RespWebhookAck
// @Router       /api/v1/billing/webhook [post]
func ApiPaymentWebhook(ing *webhooksvc.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, webhookAck{Success: false, Message: "failed to read request body"})
			return
		}

		signature := c.GetHeader(webhooksvc.SignatureHeader)

		logctx.FromGin(c, ing.Logger).Infow("webhook_received")

		if err := ing.Handle(c.Request.Context(), body, signature); err != nil {
			logctx.FromGin(c, ing.Logger).Errorw("webhook_handle_error", "error", err.Error())
			c.JSON(webhookErrorStatus(err), webhookAck{Success: false, Message: err.Error()})
			return
		}

		c.JSON(http.StatusOK, webhookAck{Success: true})
	}
}

func webhookErrorStatus(err error) int {
	switch {
	case errors.Is(err, webhooksvc.ErrBadSignature):
		return http.StatusUnauthorized
	case errors.Is(err, webhooksvc.ErrMissingSignature), errors.Is(err, webhooksvc.ErrInvalidEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func RegisterWebhookRoutes(r gin.IRouter, ing *webhooksvc.Ingestor) {
	r.POST("/webhook", ApiPaymentWebhook(ing))
}

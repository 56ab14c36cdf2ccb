package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"fundflow-service/internal/services"
	"fundflow-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	Payments *services.PaymentService
	Cashfree *services.CashfreeService
}

func NewPaymentHandler(payments *services.PaymentService, cashfree *services.CashfreeService) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Cashfree: cashfree}
}

func (h *PaymentHandler) InitiateDonation(c *gin.Context) {
	var req services.InitiateDonationDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	req.CollectionId = c.Param("id")

	result, err := h.Payments.InitiateDonation(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(result, "Donation initiated"))
}

// VerifyOrder is the client-driven reconciliation path, hit when the donor
// returns from the checkout page.
func (h *PaymentHandler) VerifyOrder(c *gin.Context) {
	orderId := c.Param("orderId")

	donation, err := h.Payments.ReconcileOrder(orderId)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Cashfree.LogCallback("verify", orderId, orderId, donation.Status, http.StatusOK)

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"order_id": donation.OrderId,
		"status":   donation.Status,
		"amount":   donation.Amount,
	}, "Successful"))
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderId string `json:"order_id"`
		} `json:"order"`
	} `json:"data"`
}

// Webhook receives Cashfree payment events. The signature check rejects
// forged events; everything else funnels into the same settle path as
// verify, so a webhook and a verify racing on one order still credit once.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Unable to read request body", nil, http.StatusBadRequest))
		return
	}

	signature := c.GetHeader("x-webhook-signature")
	timestamp := c.GetHeader("x-webhook-timestamp")
	if !h.Cashfree.VerifyWebhookSignature(body, timestamp, signature) {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("Invalid webhook signature", nil, http.StatusUnauthorized))
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Malformed webhook payload", nil, http.StatusBadRequest))
		return
	}

	var status services.OrderStatus
	switch event.Type {
	case "PAYMENT_SUCCESS_WEBHOOK":
		status = services.OrderSuccess
	case "PAYMENT_FAILED_WEBHOOK", "PAYMENT_USER_DROPPED_WEBHOOK":
		status = services.OrderFailed
	default:
		// Unhandled event types are acknowledged so the gateway stops
		// redelivering them.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	donation, err := h.Payments.ApplyGatewayOutcome(event.Data.Order.OrderId, status)
	h.Cashfree.LogCallback("webhook", event.Data.Order.OrderId, string(body), event.Type, http.StatusOK)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "order_status": donation.Status})
}

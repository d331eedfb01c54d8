package handler

import (
	"io"
	"net/http"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/rs/zerolog"
)

// signatureHeader carries the gateway's webhook signature.
const signatureHeader = "Stripe-Signature"

// PaymentHandler handles checkout, gateway webhooks and payment records.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

type webhookAck struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
	Populated int  `json:"populated,omitempty"`
}

// Checkout handles POST /api/payments/checkout.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Webhook handles POST /api/webhooks/stripe. The raw body is needed for
// signature verification.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "unreadable webhook body", h.logger)
		return
	}

	outcome, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	ack := webhookAck{Received: true}
	if outcome != nil {
		ack.Duplicate = outcome.Duplicate
		ack.Populated = outcome.Populated
	}
	writeJSON(w, http.StatusOK, ack)
}

// ListTransactions handles GET /api/transactions?userId=&page=&pageSize=.
func (h *PaymentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidQuery(w, r, "userId", h.logger)
	if !ok {
		return
	}
	page, pageSize, ok := pageQuery(w, r, h.logger)
	if !ok {
		return
	}
	txns, err := h.service.ListTransactions(r.Context(), userID, page, pageSize)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	txn, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

package subscription

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Logger:      logger,
	}
}

// CreateOrder handles POST /api/v1/payment/order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := errors.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateOrder: user not found in context")
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateOrder: failed to parse request body", "error", err, "user_id", user.ID)
		h.writePaymentError(w, http.StatusBadRequest, "invalid request body", errors.ErrCodePaymentOrderFailed)
		return
	}

	if err := req.Validate(); err != nil {
		h.Logger.Error("CreateOrder: validation error", "error", err, "user_id", user.ID)
		h.writePaymentError(w, http.StatusBadRequest, err.Error(), errors.ErrCodePaymentOrderFailed)
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), req.Amount, req.Currency)
	if err != nil {
		h.Logger.Error("CreateOrder: service error",
			"error", err,
			"user_id", user.ID,
			"amount", req.Amount)
		// Client-facing message stays generic; the gateway's error body is
		// only ever logged.
		h.writePaymentError(w, http.StatusBadRequest, "failed to create payment order", errors.ErrCodePaymentOrderFailed)
		return
	}

	h.Logger.Info("CreateOrder: order created",
		"order_id", order.ID,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusOK, order)
}

// VerifyPayment handles POST /api/v1/payment/verify
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := errors.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("VerifyPayment: user not found in context")
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("VerifyPayment: failed to parse request body", "error", err, "user_id", user.ID)
		h.writePaymentError(w, http.StatusBadRequest, "invalid request body", errors.ErrCodeVerificationFailed)
		return
	}

	if err := req.Validate(); err != nil {
		h.Logger.Error("VerifyPayment: validation error", "error", err, "user_id", user.ID)
		h.writePaymentError(w, http.StatusBadRequest, err.Error(), errors.ErrCodeVerificationFailed)
		return
	}

	result, err := h.Service.VerifyPayment(r.Context(), user.ID, req.Callback(), req.ExpectedAmount)
	if err != nil {
		h.Logger.Error("VerifyPayment: verification failed",
			"error", err,
			"user_id", user.ID,
			"order_id", req.RazorpayOrderID,
			"payment_id", req.RazorpayPaymentID)

		if appErr, ok := errors.IsAppError(err); ok && appErr.Type == errors.ErrorTypeConflict {
			h.writePaymentError(w, http.StatusConflict, "payment already processed", errors.ErrCodeVerificationFailed)
			return
		}
		h.writePaymentError(w, http.StatusBadRequest, "payment verification failed", errors.ErrCodeVerificationFailed)
		return
	}

	h.WriteJSON(w, http.StatusOK, VerifyPaymentResponse{
		Success:                true,
		Message:                "Payment verified and subscription activated",
		PaymentID:              result.PaymentID,
		AmountPaid:             result.AmountPaid,
		SubscriptionValidUntil: result.ValidUntil,
	})
}

// GetStatus handles GET /api/v1/subscription/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := errors.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	sub, err := h.Service.GetSubscription(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("GetStatus: failed to load subscription", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) writePaymentError(w http.ResponseWriter, status int, message string, code errors.ErrorCode) {
	h.WriteJSON(w, status, PaymentErrorResponse{
		Error: message,
		Code:  code,
	})
}

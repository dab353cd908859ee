package subscription

import (
	"time"

	errors "github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/core/common/validation"
)

// CreateOrderRequest carries the client-declared amount. The declared value
// is validated against the pricing policy and then discarded; the policy
// amount is what goes to the gateway.
type CreateOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (r *CreateOrderRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", r.Amount).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// VerifyPaymentRequest mirrors the checkout widget's callback payload plus
// the client's expected amount.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	ExpectedAmount    int64  `json:"expected_amount"`
}

func (r *VerifyPaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("razorpay_order_id", r.RazorpayOrderID).Required()
	validator.Field("razorpay_payment_id", r.RazorpayPaymentID).Required()
	validator.Field("razorpay_signature", r.RazorpaySignature).Required()
	validator.Field("expected_amount", r.ExpectedAmount).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (r *VerifyPaymentRequest) Callback() PaymentCallback {
	return PaymentCallback{
		OrderID:   r.RazorpayOrderID,
		PaymentID: r.RazorpayPaymentID,
		Signature: r.RazorpaySignature,
	}
}

type VerifyPaymentResponse struct {
	Success                bool      `json:"success"`
	Message                string    `json:"message"`
	PaymentID              string    `json:"payment_id"`
	AmountPaid             int64     `json:"amount_paid"`
	SubscriptionValidUntil time.Time `json:"subscription_valid_until"`
}

type PaymentErrorResponse struct {
	Error string           `json:"error"`
	Code  errors.ErrorCode `json:"code"`
}

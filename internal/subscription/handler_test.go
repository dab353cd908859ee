package subscription_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/pricing"
	subscriptionpkg "github.com/mechmaster/subscription-management/internal/subscription"
	"github.com/mechmaster/subscription-management/internal/transport"
)

type mockSubscriptionService struct {
	createOrderError   error
	verifyError        error
	getError           error
	order              *paymentgateway.Order
	verification       *subscriptionpkg.VerificationResult
	subscription       *subscriptionpkg.UserSubscription
	lastClientAmount   int64
	lastExpectedAmount int64
	lastUserID         int64
}

func (m *mockSubscriptionService) CreateOrder(ctx context.Context, clientAmount int64, currency string) (*paymentgateway.Order, error) {
	m.lastClientAmount = clientAmount
	if m.createOrderError != nil {
		return nil, m.createOrderError
	}
	return m.order, nil
}

func (m *mockSubscriptionService) VerifyPayment(ctx context.Context, userID int64, callback subscriptionpkg.PaymentCallback, expectedAmount int64) (*subscriptionpkg.VerificationResult, error) {
	m.lastUserID = userID
	m.lastExpectedAmount = expectedAmount
	if m.verifyError != nil {
		return nil, m.verifyError
	}
	return m.verification, nil
}

func (m *mockSubscriptionService) GetSubscription(ctx context.Context, userID int64) (*subscriptionpkg.UserSubscription, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.subscription, nil
}

func requestWithUser(method, target string, body []byte, user *internal.User) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(internal.ContextWithUser(req.Context(), user))
	}
	return req
}

var _ = ginkgo.Describe("SubscriptionHandler", func() {
	var (
		handler  *subscriptionpkg.Handler
		service  *mockSubscriptionService
		recorder *httptest.ResponseRecorder
		logger   *slog.Logger
		user     *internal.User
	)

	ginkgo.BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = &mockSubscriptionService{}
		baseHandler := transport.NewBaseHandler(logger)
		handler = subscriptionpkg.NewHandler(baseHandler, service, logger)
		recorder = httptest.NewRecorder()
		user = &internal.User{ID: 42, Email: "member@mechmaster.in"}
	})

	ginkgo.Describe("CreateOrder", func() {
		ginkgo.It("rejects requests without an authenticated user", func() {
			body, _ := json.Marshal(subscriptionpkg.CreateOrderRequest{Amount: pricing.AmountMinor(), Currency: "INR"})
			req := requestWithUser(http.MethodPost, "/api/v1/payment/order", body, nil)

			handler.CreateOrder(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects a malformed body with the order failure code", func() {
			req := requestWithUser(http.MethodPost, "/api/v1/payment/order", []byte("{not json"), user)

			handler.CreateOrder(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))

			var resp subscriptionpkg.PaymentErrorResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Code).To(gomega.Equal(internal.ErrCodePaymentOrderFailed))
		})

		ginkgo.It("rejects a missing amount before touching the service", func() {
			body, _ := json.Marshal(subscriptionpkg.CreateOrderRequest{Currency: "INR"})
			req := requestWithUser(http.MethodPost, "/api/v1/payment/order", body, user)

			handler.CreateOrder(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(service.lastClientAmount).To(gomega.BeZero())
		})

		ginkgo.It("maps a pricing rejection to a generic order failure", func() {
			service.createOrderError = internal.NewValidationError("invalid payment amount", internal.ErrCodeInvalidAmount)
			body, _ := json.Marshal(subscriptionpkg.CreateOrderRequest{Amount: 100, Currency: "INR"})
			req := requestWithUser(http.MethodPost, "/api/v1/payment/order", body, user)

			handler.CreateOrder(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))

			var resp subscriptionpkg.PaymentErrorResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Code).To(gomega.Equal(internal.ErrCodePaymentOrderFailed))
			gomega.Expect(resp.Error).To(gomega.Equal("failed to create payment order"))
		})

		ginkgo.It("returns the gateway order on success", func() {
			service.order = &paymentgateway.Order{
				ID:       "order_test123",
				Amount:   pricing.AmountMinor(),
				Currency: pricing.Currency(),
				Status:   "created",
			}
			body, _ := json.Marshal(subscriptionpkg.CreateOrderRequest{Amount: pricing.AmountMinor(), Currency: "INR"})
			req := requestWithUser(http.MethodPost, "/api/v1/payment/order", body, user)

			handler.CreateOrder(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))

			var order paymentgateway.Order
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &order)).To(gomega.Succeed())
			gomega.Expect(order.ID).To(gomega.Equal("order_test123"))
			gomega.Expect(order.Amount).To(gomega.Equal(pricing.AmountMinor()))
			gomega.Expect(service.lastClientAmount).To(gomega.Equal(pricing.AmountMinor()))
		})
	})

	ginkgo.Describe("VerifyPayment", func() {
		var validBody []byte

		ginkgo.BeforeEach(func() {
			validBody, _ = json.Marshal(subscriptionpkg.VerifyPaymentRequest{
				RazorpayOrderID:   "order_test123",
				RazorpayPaymentID: "pay_test456",
				RazorpaySignature: "cafebabe",
				ExpectedAmount:    pricing.AmountMinor(),
			})
		})

		ginkgo.It("rejects requests without an authenticated user", func() {
			req := requestWithUser(http.MethodPost, "/api/v1/payment/verify", validBody, nil)

			handler.VerifyPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects an incomplete callback payload", func() {
			body, _ := json.Marshal(subscriptionpkg.VerifyPaymentRequest{
				RazorpayOrderID: "order_test123",
				ExpectedAmount:  pricing.AmountMinor(),
			})
			req := requestWithUser(http.MethodPost, "/api/v1/payment/verify", body, user)

			handler.VerifyPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))

			var resp subscriptionpkg.PaymentErrorResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Code).To(gomega.Equal(internal.ErrCodeVerificationFailed))
		})

		ginkgo.It("maps a verification failure to a generic 400", func() {
			service.verifyError = internal.NewValidationError("signature mismatch", internal.ErrCodeSignatureMismatch)
			req := requestWithUser(http.MethodPost, "/api/v1/payment/verify", validBody, user)

			handler.VerifyPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))

			var resp subscriptionpkg.PaymentErrorResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Error).To(gomega.Equal("payment verification failed"))
			gomega.Expect(resp.Code).To(gomega.Equal(internal.ErrCodeVerificationFailed))
		})

		ginkgo.It("returns 409 when the payment was already applied", func() {
			service.verifyError = internal.ErrPaymentReplayed
			req := requestWithUser(http.MethodPost, "/api/v1/payment/verify", validBody, user)

			handler.VerifyPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusConflict))

			var resp subscriptionpkg.PaymentErrorResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Error).To(gomega.Equal("payment already processed"))
		})

		ginkgo.It("does not leak internal errors to the client", func() {
			service.verifyError = errors.New("pq: connection refused")
			req := requestWithUser(http.MethodPost, "/api/v1/payment/verify", validBody, user)

			handler.VerifyPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(recorder.Body.String()).NotTo(gomega.ContainSubstring("connection refused"))
		})

		ginkgo.It("returns the activation details on success", func() {
			validUntil := time.Date(2027, 8, 31, 12, 0, 0, 0, time.UTC)
			service.verification = &subscriptionpkg.VerificationResult{
				PaymentID:  "pay_test456",
				AmountPaid: pricing.Amount(),
				ValidUntil: validUntil,
			}
			req := requestWithUser(http.MethodPost, "/api/v1/payment/verify", validBody, user)

			handler.VerifyPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.lastUserID).To(gomega.Equal(int64(42)))
			gomega.Expect(service.lastExpectedAmount).To(gomega.Equal(pricing.AmountMinor()))

			var resp subscriptionpkg.VerifyPaymentResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Success).To(gomega.BeTrue())
			gomega.Expect(resp.PaymentID).To(gomega.Equal("pay_test456"))
			gomega.Expect(resp.AmountPaid).To(gomega.Equal(pricing.Amount()))
			gomega.Expect(resp.SubscriptionValidUntil).To(gomega.BeTemporally("==", validUntil))
		})
	})

	ginkgo.Describe("GetStatus", func() {
		ginkgo.It("rejects requests without an authenticated user", func() {
			req := requestWithUser(http.MethodGet, "/api/v1/subscription/status", nil, nil)

			handler.GetStatus(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("returns the user's subscription", func() {
			end := time.Now().Add(30 * 24 * time.Hour)
			service.subscription = &subscriptionpkg.UserSubscription{
				Status:  "active",
				EndDate: &end,
				IsPaid:  true,
			}
			req := requestWithUser(http.MethodGet, "/api/v1/subscription/status", nil, user)

			handler.GetStatus(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))

			var sub subscriptionpkg.UserSubscription
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &sub)).To(gomega.Succeed())
			gomega.Expect(sub.Status).To(gomega.Equal("active"))
			gomega.Expect(sub.IsPaid).To(gomega.BeTrue())
		})

		ginkgo.It("maps a repository failure through the service error handler", func() {
			service.getError = internal.NewInternalError("failed to load subscription", nil)
			req := requestWithUser(http.MethodGet, "/api/v1/subscription/status", nil, user)

			handler.GetStatus(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusInternalServerError))
		})
	})
})

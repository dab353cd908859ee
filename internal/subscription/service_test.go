package subscription_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/mechmaster/subscription-management/internal"
	subscriptionDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/subscription"
	"github.com/mechmaster/subscription-management/internal/core/events"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/pricing"
	subscriptionPkg "github.com/mechmaster/subscription-management/internal/subscription"
)

func TestSubscription(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Subscription Suite")
}

const testKeySecret = "rzp_test_secret"

// Mock gateway for testing
type mockGateway struct {
	createOrderCalls int
	fetchCalls       int

	orderToReturn   *paymentgateway.Order
	createOrderErr  error
	paymentToReturn *paymentgateway.Payment
	fetchErr        error
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*paymentgateway.Order, error) {
	m.createOrderCalls++
	if m.createOrderErr != nil {
		return nil, m.createOrderErr
	}
	if m.orderToReturn != nil {
		return m.orderToReturn, nil
	}
	return &paymentgateway.Order{
		ID:       "order_test",
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (m *mockGateway) FetchPayment(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.paymentToReturn, nil
}

// Mock repository for testing
type mockSubscriptionRepo struct {
	activations     []activation
	appliedPayments map[string]bool
	activateErr     error
	subscription    *subscriptionPkg.UserSubscription
	getErr          error
	expiredCount    int64
}

type activation struct {
	userID  int64
	payment *subscriptionDatamodel.SubscriptionPayment
	start   time.Time
	end     time.Time
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{
		appliedPayments: make(map[string]bool),
	}
}

func (m *mockSubscriptionRepo) ActivateSubscription(userID int64, payment *subscriptionDatamodel.SubscriptionPayment, start, end time.Time) error {
	if m.activateErr != nil {
		return m.activateErr
	}
	if m.appliedPayments[payment.PaymentID] {
		return subscriptionPkg.ErrDuplicatePayment
	}
	m.appliedPayments[payment.PaymentID] = true
	m.activations = append(m.activations, activation{userID: userID, payment: payment, start: start, end: end})
	return nil
}

func (m *mockSubscriptionRepo) GetSubscription(userID int64) (*subscriptionPkg.UserSubscription, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.subscription, nil
}

func (m *mockSubscriptionRepo) DeactivateExpired(asOf time.Time) (int64, error) {
	return m.expiredCount, nil
}

var _ = Describe("SubscriptionService", func() {
	var (
		service  *subscriptionPkg.Service
		gateway  *mockGateway
		repo     *mockSubscriptionRepo
		eventBus *events.EventBus
		logger   *slog.Logger
	)

	BeforeEach(func() {
		gateway = &mockGateway{}
		repo = newMockSubscriptionRepo()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus = events.NewEventBus(logger)
		service = subscriptionPkg.NewService(gateway, repo, testKeySecret, eventBus, logger)
	})

	Describe("CreateOrder", func() {
		Context("when the client declares the policy amount", func() {
			It("should create a gateway order for the policy amount", func() {
				order, err := service.CreateOrder(context.Background(), pricing.AmountMinor(), "INR")

				Expect(err).ToNot(HaveOccurred())
				Expect(order).ToNot(BeNil())
				Expect(order.Amount).To(Equal(pricing.AmountMinor()))
				Expect(order.Currency).To(Equal("INR"))
				Expect(gateway.createOrderCalls).To(Equal(1))
			})

			It("should default an empty currency to INR", func() {
				order, err := service.CreateOrder(context.Background(), pricing.AmountMinor(), "")

				Expect(err).ToNot(HaveOccurred())
				Expect(order.Currency).To(Equal(pricing.Currency()))
			})
		})

		Context("when the client declares any other amount", func() {
			It("should reject without calling the gateway", func() {
				for _, amount := range []int64{0, 1, 100, 13999, 14001, 140, 1400000, -14000} {
					gateway.createOrderCalls = 0

					order, err := service.CreateOrder(context.Background(), amount, "INR")

					Expect(err).To(HaveOccurred())
					Expect(errors.Is(err, apperrors.ErrInvalidAmount) || err == apperrors.ErrInvalidAmount).To(BeTrue())
					Expect(order).To(BeNil())
					Expect(gateway.createOrderCalls).To(Equal(0), "no gateway call for amount %d", amount)
				}
			})
		})

		Context("when the currency is not INR", func() {
			It("should reject without calling the gateway", func() {
				order, err := service.CreateOrder(context.Background(), pricing.AmountMinor(), "USD")

				Expect(err).To(HaveOccurred())
				Expect(order).To(BeNil())
				Expect(gateway.createOrderCalls).To(Equal(0))
			})
		})

		Context("when the gateway echoes a different amount", func() {
			It("should fail with an order amount mismatch", func() {
				gateway.orderToReturn = &paymentgateway.Order{
					ID:       "order_drift",
					Amount:   pricing.AmountMinor() + 100,
					Currency: "INR",
				}

				order, err := service.CreateOrder(context.Background(), pricing.AmountMinor(), "INR")

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeOrderAmountMismatch))
				Expect(order).To(BeNil())
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should surface a gateway error", func() {
				gateway.createOrderErr = errors.New("connection refused")

				order, err := service.CreateOrder(context.Background(), pricing.AmountMinor(), "INR")

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayError))
				Expect(order).To(BeNil())
			})
		})
	})

	Describe("VerifyPayment", func() {
		var callback subscriptionPkg.PaymentCallback

		BeforeEach(func() {
			callback = subscriptionPkg.PaymentCallback{
				OrderID:   "order_test",
				PaymentID: "pay_test",
			}
			callback.Signature = subscriptionPkg.ComputeSignature(testKeySecret, callback.OrderID, callback.PaymentID)

			gateway.paymentToReturn = &paymentgateway.Payment{
				ID:      "pay_test",
				OrderID: "order_test",
				Amount:  pricing.AmountMinor(),
				Status:  paymentgateway.PaymentStatusCaptured,
			}
		})

		Context("when every check passes", func() {
			It("should activate the subscription for one year", func() {
				before := time.Now()
				result, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())
				after := time.Now()

				Expect(err).ToNot(HaveOccurred())
				Expect(result).ToNot(BeNil())
				Expect(result.PaymentID).To(Equal("pay_test"))
				Expect(result.AmountPaid).To(Equal(pricing.Amount()))

				Expect(repo.activations).To(HaveLen(1))
				applied := repo.activations[0]
				Expect(applied.userID).To(Equal(int64(42)))
				Expect(applied.payment.PaymentID).To(Equal("pay_test"))
				Expect(applied.payment.OrderID).To(Equal("order_test"))
				Expect(applied.payment.AmountPaise).To(Equal(pricing.AmountMinor()))

				// end date is start + 1 calendar year, within a day of 365
				// days to absorb leap years
				Expect(applied.end).To(BeTemporally("~", before.AddDate(1, 0, 0), after.Sub(before)+24*time.Hour))
				Expect(result.ValidUntil).To(Equal(applied.end))
			})
		})

		Context("when the expected amount is not the policy amount", func() {
			It("should reject before any remote work", func() {
				result, err := service.VerifyPayment(context.Background(), 42, callback, 9999)

				Expect(err).To(HaveOccurred())
				appErr, _ := apperrors.IsAppError(err)
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidAmount))
				Expect(result).To(BeNil())
				Expect(gateway.fetchCalls).To(Equal(0))
				Expect(repo.activations).To(BeEmpty())
			})
		})

		Context("when the signature does not match", func() {
			It("should reject a tampered signature without a gateway lookup", func() {
				// flip one character
				sig := []byte(callback.Signature)
				if sig[0] == 'a' {
					sig[0] = 'b'
				} else {
					sig[0] = 'a'
				}
				callback.Signature = string(sig)

				result, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

				Expect(err).To(HaveOccurred())
				appErr, _ := apperrors.IsAppError(err)
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeSignatureMismatch))
				Expect(result).To(BeNil())
				Expect(gateway.fetchCalls).To(Equal(0))
				Expect(repo.activations).To(BeEmpty())
			})

			It("should reject a signature computed over different identifiers", func() {
				callback.Signature = subscriptionPkg.ComputeSignature(testKeySecret, "order_other", callback.PaymentID)

				_, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

				Expect(err).To(HaveOccurred())
				appErr, _ := apperrors.IsAppError(err)
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeSignatureMismatch))
			})
		})

		Context("when the gateway lookup fails", func() {
			It("should reject without mutating the subscription", func() {
				gateway.fetchErr = errors.New("timeout")

				result, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

				Expect(err).To(HaveOccurred())
				appErr, _ := apperrors.IsAppError(err)
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayLookupFailed))
				Expect(result).To(BeNil())
				Expect(repo.activations).To(BeEmpty())
			})
		})

		Context("when the captured amount differs from the policy", func() {
			It("should reject and leave the subscription untouched", func() {
				for _, amount := range []int64{0, 100, 13999, 14001, 1400000} {
					gateway.paymentToReturn.Amount = amount

					result, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

					Expect(err).To(HaveOccurred())
					appErr, _ := apperrors.IsAppError(err)
					Expect(appErr.Code).To(Equal(apperrors.ErrCodeAmountMismatch))
					Expect(result).To(BeNil())
					Expect(repo.activations).To(BeEmpty(), "no activation for captured amount %d", amount)
				}
			})
		})

		Context("when the payment status is not captured", func() {
			It("should reject and leave the subscription untouched", func() {
				for _, status := range []string{"failed", "pending", "authorized", "refunded"} {
					gateway.paymentToReturn.Status = status

					result, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

					Expect(err).To(HaveOccurred())
					appErr, _ := apperrors.IsAppError(err)
					Expect(appErr.Code).To(Equal(apperrors.ErrCodePaymentNotCaptured))
					Expect(result).To(BeNil())
					Expect(repo.activations).To(BeEmpty(), "no activation for status %s", status)
				}
			})
		})

		Context("when the identical callback is delivered twice", func() {
			It("should apply once and reject the replay", func() {
				first, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())
				Expect(err).ToNot(HaveOccurred())
				Expect(first).ToNot(BeNil())

				second, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

				Expect(err).To(HaveOccurred())
				appErr, _ := apperrors.IsAppError(err)
				Expect(appErr.Code).To(Equal(apperrors.ErrCodePaymentAlreadyProcessed))
				Expect(second).To(BeNil())
				Expect(repo.activations).To(HaveLen(1), "the expiry must not move on replay")
			})
		})

		Context("when persisting the activation fails", func() {
			It("should return an internal error", func() {
				repo.activateErr = errors.New("database down")

				result, err := service.VerifyPayment(context.Background(), 42, callback, pricing.AmountMinor())

				Expect(err).To(HaveOccurred())
				Expect(result).To(BeNil())
			})
		})
	})

	Describe("Signature", func() {
		It("should match the gateway construction over orderID|paymentID", func() {
			sig := subscriptionPkg.ComputeSignature("secret", "order_1", "pay_1")

			Expect(subscriptionPkg.VerifySignature("secret", "order_1", "pay_1", sig)).To(BeTrue())
		})

		It("should fail when any single character is flipped", func() {
			sig := subscriptionPkg.ComputeSignature("secret", "order_1", "pay_1")

			for i := 0; i < len(sig); i++ {
				tampered := []byte(sig)
				if tampered[i] == '0' {
					tampered[i] = '1'
				} else {
					tampered[i] = '0'
				}
				Expect(subscriptionPkg.VerifySignature("secret", "order_1", "pay_1", string(tampered))).To(BeFalse())
			}
		})

		It("should fail with the wrong secret", func() {
			sig := subscriptionPkg.ComputeSignature("secret", "order_1", "pay_1")

			Expect(subscriptionPkg.VerifySignature("other-secret", "order_1", "pay_1", sig)).To(BeFalse())
		})
	})

	Describe("GetSubscription", func() {
		It("should return the stored subscription view", func() {
			end := time.Now().AddDate(1, 0, 0)
			repo.subscription = &subscriptionPkg.UserSubscription{
				Status:  "active",
				EndDate: &end,
				IsPaid:  true,
			}

			sub, err := service.GetSubscription(context.Background(), 42)

			Expect(err).ToNot(HaveOccurred())
			Expect(sub.IsCurrentlyActive(time.Now())).To(BeTrue())
		})

		It("should treat a lapsed end date as inactive", func() {
			end := time.Now().AddDate(0, 0, -1)
			repo.subscription = &subscriptionPkg.UserSubscription{
				Status:  "active",
				EndDate: &end,
				IsPaid:  true,
			}

			sub, err := service.GetSubscription(context.Background(), 42)

			Expect(err).ToNot(HaveOccurred())
			Expect(sub.IsCurrentlyActive(time.Now())).To(BeFalse())
		})
	})
})

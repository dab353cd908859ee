package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	subscriptionDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/subscription"
	userDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/user"
	subscriptionpkg "github.com/mechmaster/subscription-management/internal/subscription"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) subscriptionpkg.RepositoryAPI {
	return &SubscriptionRepository{
		db: db,
	}
}

// ActivateSubscription writes the payment record and the user's entitlement
// in one transaction. The payment-id existence check inside the transaction
// plus the unique index make a replayed callback fail instead of extending
// the subscription a second time.
func (r *SubscriptionRepository) ActivateSubscription(userID int64, payment *subscriptionDatamodel.SubscriptionPayment, start, end time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing subscriptionDatamodel.SubscriptionPayment
		err := tx.Where("payment_id = ?", payment.PaymentID).First(&existing).Error
		if err == nil {
			return subscriptionpkg.ErrDuplicatePayment
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return subscriptionpkg.ErrDuplicatePayment
			}
			return err
		}

		updates := map[string]interface{}{
			"subscription_status":     userDatamodel.SubscriptionStatusActive,
			"subscription_start_date": start,
			"subscription_end_date":   end,
			"payment_reference":       payment.PaymentID,
			"is_paid":                 true,
			"updated_at":              time.Now(),
		}

		return tx.Model(&userDatamodel.User{}).Where("id = ?", userID).Updates(updates).Error
	})
}

func (r *SubscriptionRepository) GetSubscription(userID int64) (*subscriptionpkg.UserSubscription, error) {
	var u userDatamodel.User
	if err := r.db.First(&u, userID).Error; err != nil {
		return nil, err
	}

	return &subscriptionpkg.UserSubscription{
		Status:           u.SubscriptionStatus,
		StartDate:        u.SubscriptionStartDate,
		EndDate:          u.SubscriptionEndDate,
		PaymentReference: u.PaymentReference,
		IsPaid:           u.IsPaid,
	}, nil
}

func (r *SubscriptionRepository) DeactivateExpired(asOf time.Time) (int64, error) {
	result := r.db.Model(&userDatamodel.User{}).
		Where("subscription_status = ?", userDatamodel.SubscriptionStatusActive).
		Where("subscription_end_date < ?", asOf).
		Updates(map[string]interface{}{
			"subscription_status": userDatamodel.SubscriptionStatusInactive,
			"updated_at":          time.Now(),
		})
	return result.RowsAffected, result.Error
}

package subscription

import "time"

// SubscriptionPayment is the durable record of a verified payment. The
// unique index on payment_id is the replay guard: a duplicate callback for
// an already-applied payment cannot activate or extend a subscription twice.
type SubscriptionPayment struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"column:user_id;not null;index"`
	OrderID     string    `gorm:"column:order_id;not null"`
	PaymentID   string    `gorm:"column:payment_id;not null;uniqueIndex"`
	AmountPaise int64     `gorm:"column:amount_paise;not null"`
	Status      string    `gorm:"column:status;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

package user

import (
	"errors"
	"time"
)

// User is the profile view served to the account owner, including the
// subscription fields the access gate reads.
type User struct {
	ID                    int64      `json:"id" db:"id"`
	Email                 string     `json:"email" db:"email"`
	Name                  string     `json:"name" db:"name"`
	Contact               string     `json:"contact,omitempty" db:"contact"`
	IsActive              bool       `json:"is_active" db:"is_active"`
	SubscriptionStatus    string     `json:"subscription_status" db:"subscription_status"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date,omitempty" db:"subscription_start_date"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date,omitempty" db:"subscription_end_date"`
	IsPaid                bool       `json:"is_paid" db:"is_paid"`
	Permissions           []string   `json:"permissions,omitempty" db:"-"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

var ErrNotFound = errors.New("user not found")

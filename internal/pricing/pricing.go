// Package pricing is the single source of truth for the subscription price.
// Every monetary comparison on the payment path calls these accessors; no
// other package restates the amount.
package pricing

import "fmt"

const (
	subscriptionAmountINR = 140
	minorUnitMultiplier   = 100
	currency              = "INR"
)

// Amount returns the annual subscription price in major units (rupees).
func Amount() int64 {
	return subscriptionAmountINR
}

// AmountMinor returns the subscription price in minor units (paise), the
// form the gateway transacts in.
func AmountMinor() int64 {
	return subscriptionAmountINR * minorUnitMultiplier
}

// Currency returns the fixed settlement currency.
func Currency() string {
	return currency
}

// FormatAmount renders the major-unit price for display.
func FormatAmount() string {
	return fmt.Sprintf("₹%d", Amount())
}

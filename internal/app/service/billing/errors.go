package billing

import "errors"

var (
	// ErrUserNotFound aborts a payment flow when the customer email does not
	// match an existing account. Payments never auto-provision users.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownPlan aborts activation when the provider plan id is not in
	// the catalog.
	ErrUnknownPlan = errors.New("unknown plan")
)

package gateway

// Charge statuses as seen by the rest of the application. Provider
// specific states are normalized into these three.
const (
	StatusSucceeded = "succeeded"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// Charge is the narrow view of a provider charge the application depends
// on: amount in minor units, a normalized status and the payment id the
// charge was created for.
type Charge struct {
	ID        string
	Amount    int64
	Currency  string
	Status    string
	PaymentID string
}

// Gateway abstracts the external payment provider. Callers never see
// provider-specific types.
type Gateway interface {
	// CreateCharge registers a charge for the given amount (minor units)
	// tagged with the application payment id and returns its handle.
	CreateCharge(amount int64, currency string, paymentID string) (*Charge, error)
	// GetCharge fetches the current state of a previously created charge.
	GetCharge(chargeID string) (*Charge, error)
}

package gateway

import (
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway implements Gateway on top of the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway builds a gateway from API credentials.
func NewRazorpayGateway(key, secret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(key, secret),
	}
}

// CreateCharge creates a Razorpay order with the payment id recorded in
// the order notes so verification can match the charge back to us.
func (g *RazorpayGateway) CreateCharge(amount int64, currency string, paymentID string) (*Charge, error) {
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         "pay_rcpt_" + paymentID,
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"payment_id": paymentID,
		},
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create failed: %w", err)
	}

	return chargeFromOrder(order), nil
}

// GetCharge fetches a Razorpay order and normalizes it.
func (g *RazorpayGateway) GetCharge(chargeID string) (*Charge, error) {
	order, err := g.client.Order.Fetch(chargeID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch failed: %w", err)
	}

	return chargeFromOrder(order), nil
}

func chargeFromOrder(order map[string]interface{}) *Charge {
	charge := &Charge{
		ID:       stringField(order, "id"),
		Currency: stringField(order, "currency"),
		Status:   normalizeStatus(stringField(order, "status")),
	}

	if amount, ok := order["amount"].(float64); ok {
		charge.Amount = int64(amount)
	}

	if notes, ok := order["notes"].(map[string]interface{}); ok {
		charge.PaymentID = fmt.Sprintf("%v", notes["payment_id"])
	}

	return charge
}

func normalizeStatus(status string) string {
	switch status {
	case "paid":
		return StatusSucceeded
	case "created", "attempted":
		return StatusPending
	default:
		return StatusFailed
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

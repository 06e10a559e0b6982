package transfer

import "github.com/MrJamesThe3rd/ordertransfer/internal/order"

// GatewayID is the payment method tag of orders placed for transfer.
const GatewayID = "order_transfer_gateway"

// Settings configures the transfer payment gateway shown at checkout.
type Settings struct {
	Enabled      bool
	Title        string
	Description  string
	Instructions string
}

func DefaultSettings() Settings {
	return Settings{
		Enabled:     true,
		Title:       "Order transfer",
		Description: "Please transfer order to this user",
	}
}

// ThankYouInstructions is the text shown on the order-received page.
func (s Settings) ThankYouInstructions() string {
	return s.Instructions
}

// EmailInstructions returns the instructions to embed in an order email, or
// an empty string when the email should not carry them.
func (s Settings) EmailInstructions(o *order.Order, sentToAdmin bool) string {
	if s.Instructions == "" || sentToAdmin {
		return ""
	}

	if o.PaymentMethod != GatewayID || o.Status != order.StatusOnHold {
		return ""
	}

	return s.Instructions
}

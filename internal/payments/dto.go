package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/types"
)

var decimalHundred = decimal.NewFromInt(100)

// PaymentInput is the assembled submission payload: raw card fields for
// validation, the tokenized source for the processor, and the order snapshot.
// The order id is minted by the client before submission.
type PaymentInput struct {
	OrderID     uuid.UUID
	CartID      uuid.UUID
	UserID      *uuid.UUID
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	NameOnCard  string
	SourceID    string
	Amount      decimal.Decimal
	Email       string
	Phone       string

	Contact         types.ContactInfo
	BillingAddress  *types.Address
	ShippingAddress *types.Address
	FFLDealer       *types.FFLDealerInfo
}

// Receipt acknowledges receipt of a submission. Status is always pending;
// resolution happens via polling, never in the submission response.
type Receipt struct {
	OrderID uuid.UUID           `json:"order_id"`
	Status  enums.PaymentStatus `json:"status"`
	Amount  string              `json:"amount"`
}

// normalized holds the submission payload after validation cleanup: card
// digits without spaces, two-digit month, amount fixed to two decimals.
type normalized struct {
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
	Amount      string
	AmountCents int64
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carnimore/storefront-backend/api/middleware"
	"github.com/carnimore/storefront-backend/api/responses"
	"github.com/carnimore/storefront-backend/api/validators"
	"github.com/carnimore/storefront-backend/internal/cart"
	"github.com/carnimore/storefront-backend/internal/checkout"
	"github.com/carnimore/storefront-backend/internal/payments"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

type paymentRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	CartID      uuid.UUID `json:"cart_id" validate:"required"`
	CardNumber  string    `json:"card_number" validate:"required"`
	ExpiryMonth string    `json:"expiry_month" validate:"required"`
	ExpiryYear  string    `json:"expiry_year" validate:"required"`
	CVV         string    `json:"cvv" validate:"required"`
	NameOnCard  string    `json:"name_on_card" validate:"required"`
	SourceID    string    `json:"source_id" validate:"required"`
}

// PaymentSubmit assembles a submission from the checkout flow and the raw
// card fields, hands it to the payment service, and always acknowledges with
// a pending receipt. The flow is discarded once the submission is accepted.
func PaymentSubmit(svc payments.Service, flows checkout.Service, carts cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || flows == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var body paymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := flows.GetFlow(r.Context(), body.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := carts.GetCart(r.Context(), body.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.PaymentInput{
			OrderID:         body.OrderID,
			CartID:          body.CartID,
			CardNumber:      body.CardNumber,
			ExpiryMonth:     body.ExpiryMonth,
			ExpiryYear:      body.ExpiryYear,
			CVV:             body.CVV,
			NameOnCard:      body.NameOnCard,
			SourceID:        body.SourceID,
			Amount:          decimal.New(int64(dto.SubtotalCents), -2),
			BillingAddress:  flow.Data.BillingAddress,
			ShippingAddress: flow.Data.ShippingAddress,
			FFLDealer:       flow.Data.FFLDealer,
		}
		if contact := flow.Data.Contact; contact != nil {
			input.Contact = *contact
			input.Email = contact.Email
			input.Phone = contact.Phone
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if userID, parseErr := uuid.Parse(raw); parseErr == nil {
				input.UserID = &userID
			}
		}

		receipt, err := svc.Process(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flows.EndFlow(r.Context(), body.CartID); err != nil && logg != nil {
			logg.Error(r.Context(), "discard checkout flow after submission", err)
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, receipt)
	}
}

package types

// ProcessorResponse stores the payment processor's terminal metadata on the
// order as jsonb.
type ProcessorResponse struct {
	TransactionID string `json:"transactionId"`
	AuthCode      string `json:"authCode"`
}

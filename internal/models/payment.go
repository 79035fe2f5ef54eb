package models

// InstantTransferIntent is a short-lived instruction for a provider-hosted
// instant payment. CheckoutURL may be empty, in which case the bank style
// fields are displayed instead.
type InstantTransferIntent struct {
	Amount          int64  `json:"amount"`
	Fee             int64  `json:"fee"`
	Net             int64  `json:"net"`
	CheckoutURL     string `json:"checkoutUrl,omitempty"`
	ExpiresIn       string `json:"expiresIn"`
	Reference       string `json:"reference"`
	Channel         string `json:"channel"`
	BankAccountName string `json:"bankAccountName"`
}

// BankTransferIntent carries manual transfer instructions.
type BankTransferIntent struct {
	Amount            int64  `json:"amount"`
	BankName          string `json:"bankName"`
	BankAccountName   string `json:"bankAccountName"`
	BankAccountNumber string `json:"bankAccountNumber"`
	Reference         string `json:"reference"`
}

// PaymentIntentPair is the combined response of the activate and top-up
// operations. Both legs must be present before a payment method can be
// offered.
type PaymentIntentPair struct {
	InstantTransfer *InstantTransferIntent `json:"instantTransfer"`
	BankTransfer    *BankTransferIntent    `json:"bankTransfer"`
}

// Complete reports whether both payment options were issued.
func (p PaymentIntentPair) Complete() bool {
	return p.InstantTransfer != nil && p.BankTransfer != nil
}

// LiquidateResult holds the authorization intent id issued when a liquidation
// is initiated but not yet PIN-authorized.
type LiquidateResult struct {
	IntentID string `json:"intentId"`
}

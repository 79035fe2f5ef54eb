package models

// BankAccount is the payout destination resolved once per liquidation flow
// and held immutable for the flow's duration.
type BankAccount struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

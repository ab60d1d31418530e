package enums

import "fmt"

// TransactionType classifies what a ledger entry settles.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeRental   TransactionType = "rental"
	TransactionTypePayout   TransactionType = "payout"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePurchase,
	TransactionTypeRental,
	TransactionTypePayout,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

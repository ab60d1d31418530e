package enums

import "fmt"

// OrderStatus tracks whether a fulfilled order has been picked up.
type OrderStatus string

const (
	OrderStatusToCollect OrderStatus = "to_collect"
	OrderStatusCollected OrderStatus = "collected"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusToCollect,
	OrderStatusCollected,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

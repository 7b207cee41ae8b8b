package models

import (
	"fmt"
	"strings"
)

// PaymentStatus tracks how far a session's payment has progressed.
type PaymentStatus string

const (
	PaymentPreAuthorized PaymentStatus = "PreAuthorized"
	PaymentPaid          PaymentStatus = "Paid"
	PaymentFailed        PaymentStatus = "Failed"
)

// ParsePaymentStatus matches the input against known statuses ignoring case.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	trimmed := strings.TrimSpace(raw)
	for _, status := range []PaymentStatus{PaymentPreAuthorized, PaymentPaid, PaymentFailed} {
		if strings.EqualFold(trimmed, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("'%s' is not a valid payment status", raw)
}

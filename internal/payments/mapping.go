package payments

import (
	"strings"

	"github.com/opticamarket/marketplace-backend/pkg/enums"
)

var gatewayStatuses = map[string]enums.PaymentStatus{
	"pending":      enums.PaymentStatusPending,
	"approved":     enums.PaymentStatusApproved,
	"authorized":   enums.PaymentStatusApproved,
	"in_process":   enums.PaymentStatusInProcess,
	"in_mediation": enums.PaymentStatusInProcess,
	"rejected":     enums.PaymentStatusRejected,
	"cancelled":    enums.PaymentStatusCancelled,
	"refunded":     enums.PaymentStatusCancelled,
	"charged_back": enums.PaymentStatusCancelled,
}

// MapGatewayStatus translates the gateway vocabulary. Unknown values fall back to PENDING
// and report known=false so callers can count and log them.
func MapGatewayStatus(external string) (status enums.PaymentStatus, known bool) {
	status, known = gatewayStatuses[strings.ToLower(strings.TrimSpace(external))]
	if !known {
		return enums.PaymentStatusPending, false
	}
	return status, true
}

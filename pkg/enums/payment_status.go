package enums

// PaymentStatus is the internal view of the gateway payment attached to an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusApproved  PaymentStatus = "APPROVED"
	PaymentStatusInProcess PaymentStatus = "IN_PROCESS"
	PaymentStatusRejected  PaymentStatus = "REJECTED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusApproved,
	PaymentStatusInProcess,
	PaymentStatusRejected,
	PaymentStatusCancelled,
}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return known(validPaymentStatuses, p) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse(validPaymentStatuses, value, "payment status")
}

// IsFailure reports whether the payment ended without funds being captured.
func (p PaymentStatus) IsFailure() bool {
	return p == PaymentStatusRejected || p == PaymentStatusCancelled
}

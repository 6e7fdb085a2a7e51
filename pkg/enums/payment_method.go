package enums

// PaymentMethod is what the buyer picked at checkout. The gateway may still settle it differently.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodPix    PaymentMethod = "PIX"
	PaymentMethodBoleto PaymentMethod = "BOLETO"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodPix,
	PaymentMethodBoleto,
}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return known(validPaymentMethods, p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse(validPaymentMethods, value, "payment method")
}

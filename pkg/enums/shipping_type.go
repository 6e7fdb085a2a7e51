package enums

// ShippingType decides who arranges delivery of an order.
type ShippingType string

const (
	ShippingTypePlatform ShippingType = "PLATFORM"
	ShippingTypeSeller   ShippingType = "SELLER"
)

var validShippingTypes = []ShippingType{
	ShippingTypePlatform,
	ShippingTypeSeller,
}

func (s ShippingType) String() string { return string(s) }

func (s ShippingType) IsValid() bool { return known(validShippingTypes, s) }

func ParseShippingType(value string) (ShippingType, error) {
	return parse(validShippingTypes, value, "shipping type")
}

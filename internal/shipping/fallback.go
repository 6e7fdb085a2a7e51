package shipping

import (
	"github.com/shopspring/decimal"
)

const (
	ServiceStandard = "STANDARD"
	ServiceExpress  = "EXPRESS"
)

type baseRate struct {
	service string
	name    string
	price   decimal.Decimal
	days    int
}

var baseRates = []baseRate{
	{service: ServiceStandard, name: "Entrega padrão", price: decimal.RequireFromString("15.90"), days: 7},
	{service: ServiceExpress, name: "Entrega expressa", price: decimal.RequireFromString("29.90"), days: 3},
}

// regionMultipliers is keyed by the first digit of the destination postal code.
var regionMultipliers = map[byte]decimal.Decimal{
	'0': decimal.RequireFromString("1.00"),
	'1': decimal.RequireFromString("1.00"),
	'2': decimal.RequireFromString("1.10"),
	'3': decimal.RequireFromString("1.10"),
	'4': decimal.RequireFromString("1.35"),
	'5': decimal.RequireFromString("1.35"),
	'6': decimal.RequireFromString("1.60"),
	'7': decimal.RequireFromString("1.25"),
	'8': decimal.RequireFromString("1.15"),
	'9': decimal.RequireFromString("1.15"),
}

// regionExtraDays is added to the base delivery estimate for remote regions.
var regionExtraDays = map[byte]int{
	'4': 2,
	'5': 2,
	'6': 4,
	'7': 2,
}

var (
	minWeightKg     = decimal.RequireFromString("0.3")
	extraKgIncrease = decimal.RequireFromString("0.25")
)

// weightFactor is 1 up to one kilogram, then grows 25% per started kilogram.
func weightFactor(weightKg decimal.Decimal) decimal.Decimal {
	if weightKg.LessThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	extra := weightKg.Sub(decimal.NewFromInt(1)).Ceil()
	return decimal.NewFromInt(1).Add(extra.Mul(extraKgIncrease))
}

func regionMultiplier(postalCode string) decimal.Decimal {
	if postalCode == "" {
		return decimal.NewFromInt(1)
	}
	if m, ok := regionMultipliers[postalCode[0]]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// fallbackQuotes prices every base service deterministically from weight and destination.
func fallbackQuotes(postalCode string, weightKg decimal.Decimal) []Quote {
	factor := weightFactor(weightKg).Mul(regionMultiplier(postalCode))
	extraDays := 0
	if postalCode != "" {
		extraDays = regionExtraDays[postalCode[0]]
	}
	quotes := make([]Quote, 0, len(baseRates))
	for _, rate := range baseRates {
		quotes = append(quotes, Quote{
			Service:      rate.service,
			Name:         rate.name,
			Price:        rate.price.Mul(factor).Round(2),
			DeliveryDays: rate.days + extraDays,
		})
	}
	return quotes
}

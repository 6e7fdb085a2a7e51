package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opticamarket/marketplace-backend/internal/address"
	"github.com/opticamarket/marketplace-backend/pkg/carrier"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
	"github.com/opticamarket/marketplace-backend/pkg/redis"
)

const (
	SourceCarrier  = "carrier"
	SourceCache    = "cache"
	SourceFallback = "fallback"

	defaultCacheTTL = 30 * time.Minute
	postalCodeLen   = 8
)

// Quote is one delivery option offered to the buyer.
type Quote struct {
	Service      string          `json:"service"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"delivery_days"`
}

// Result carries the quotes and where they came from.
type Result struct {
	Quotes []Quote `json:"quotes"`
	Source string  `json:"source"`
}

// Service prices deliveries for a destination postal code.
type Service interface {
	Quote(ctx context.Context, postalCode string, weightKg decimal.Decimal) (*Result, error)
}

type rateProvider interface {
	Quote(ctx context.Context, req carrier.QuoteRequest) ([]carrier.Rate, error)
}

type quoteCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ShippingQuoteKey(parts ...string) string
}

// ServiceParams wires the quote service. Carrier and Cache are optional.
type ServiceParams struct {
	Carrier          rateProvider
	Cache            quoteCache
	CacheTTL         time.Duration
	OriginPostalCode string
	Metrics          *metrics.ShippingMetrics
	Logger           *logger.Logger
}

type service struct {
	carrier  rateProvider
	cache    quoteCache
	cacheTTL time.Duration
	origin   string
	metrics  *metrics.ShippingMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	origin := address.NormalizePostalCode(params.OriginPostalCode)
	if len(origin) != postalCodeLen {
		return nil, fmt.Errorf("origin postal code must have %d digits", postalCodeLen)
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		carrier:  params.Carrier,
		cache:    params.Cache,
		cacheTTL: ttl,
		origin:   origin,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Quote asks the carrier first, then the last cached carrier answer, then the local rate
// table. The result is sorted by price.
func (s *service) Quote(ctx context.Context, postalCode string, weightKg decimal.Decimal) (*Result, error) {
	dest := address.NormalizePostalCode(postalCode)
	if len(dest) != postalCodeLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code must have 8 digits")
	}
	if weightKg.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must not be negative")
	}
	if weightKg.LessThan(minWeightKg) {
		weightKg = minWeightKg
	}
	key := s.cacheKey(dest, weightKg)

	quotes, err := s.fromCarrier(ctx, dest, weightKg)
	if err == nil && len(quotes) > 0 {
		s.store(ctx, key, quotes)
		return s.result(quotes, SourceCarrier), nil
	}
	s.warn(ctx, dest, "carrier quote unavailable", err)

	if cached, ok := s.load(ctx, key); ok {
		return s.result(cached, SourceCache), nil
	}
	return s.result(fallbackQuotes(dest, weightKg), SourceFallback), nil
}

func (s *service) fromCarrier(ctx context.Context, dest string, weightKg decimal.Decimal) ([]Quote, error) {
	if s.carrier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carrier not configured")
	}
	rates, err := s.carrier.Quote(ctx, carrier.QuoteRequest{
		FromPostalCode: s.origin,
		ToPostalCode:   dest,
		WeightKg:       weightKg,
	})
	if err != nil {
		return nil, err
	}
	quotes := make([]Quote, 0, len(rates))
	for _, rate := range rates {
		quotes = append(quotes, Quote{
			Service:      rate.Service,
			Name:         rate.Name,
			Price:        rate.Price,
			DeliveryDays: rate.DeliveryDays,
		})
	}
	return quotes, nil
}

func (s *service) cacheKey(dest string, weightKg decimal.Decimal) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.ShippingQuoteKey(s.origin, dest, weightKg.StringFixed(3))
}

func (s *service) store(ctx context.Context, key string, quotes []Quote) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(quotes)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.warn(ctx, "", "cache shipping quotes failed", err)
	}
}

func (s *service) load(ctx context.Context, key string) ([]Quote, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) {
			s.warn(ctx, "", "read cached shipping quotes failed", err)
		}
		return nil, false
	}
	var quotes []Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil || len(quotes) == 0 {
		return nil, false
	}
	return quotes, true
}

func (s *service) result(quotes []Quote, source string) *Result {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Price.LessThan(quotes[j].Price)
	})
	s.metrics.IncQuote(source)
	return &Result{Quotes: quotes, Source: source}
}

func (s *service) warn(ctx context.Context, dest, msg string, err error) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{}
	if dest != "" {
		fields["postal_code"] = dest
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

package router

import (
	"math"

	"github.com/hxuan190/amm-router/internal/domain"
)

// Price impact thresholds in basis points (bps)
const (
	PriceImpactLow      uint16 = 100  // 1% - Low impact
	PriceImpactModerate uint16 = 300  // 3% - Moderate impact
	PriceImpactHigh     uint16 = 500  // 5% - High impact
	PriceImpactExtreme  uint16 = 1000 // 10% - Extreme impact
)

// PriceImpactSeverity represents the severity level of price impact
type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"     // < 1%
	SeverityLow      PriceImpactSeverity = "low"      // 1-3%
	SeverityModerate PriceImpactSeverity = "moderate" // 3-5%
	SeverityHigh     PriceImpactSeverity = "high"     // 5-10%
	SeverityExtreme  PriceImpactSeverity = "extreme"  // > 10%
)

// GetPriceImpactSeverity returns the severity level based on price impact bps
func GetPriceImpactSeverity(priceImpactBps uint16) PriceImpactSeverity {
	switch {
	case priceImpactBps < PriceImpactLow:
		return SeverityNone
	case priceImpactBps < PriceImpactModerate:
		return SeverityLow
	case priceImpactBps < PriceImpactHigh:
		return SeverityModerate
	case priceImpactBps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// SplitPriceImpact compares what the chosen routes return against what the
// same inputs would return at each route's mid price:
// impact = (spotOutput - actualOutput) / spotOutput.
func SplitPriceImpact(routes []*RouteWithValidQuote) (domain.Percent, error) {
	spot := domain.NewFractionInt(0, 1)
	actual := domain.NewFractionInt(0, 1)
	for _, r := range routes {
		mid, err := r.Route.MidPrice()
		if err != nil {
			return domain.Percent{}, err
		}
		input, output := r.Amount, r.Quote
		if r.TradeType == domain.ExactOutput {
			input, output = r.Quote, r.Amount
		}
		spot = spot.Add(mid.Fraction.Mul(input.Fraction))
		actual = actual.Add(output.Fraction)
	}
	if spot.Sign() <= 0 {
		return domain.NewPercentInt(0, 1), nil
	}
	return domain.Percent{Fraction: spot.Sub(actual).Div(spot)}, nil
}

// ImpactBps rounds an impact down to basis points, clamped to uint16.
// Negative impact (a better-than-spot fill) counts as zero.
func ImpactBps(p domain.Percent) uint16 {
	if p.Sign() <= 0 {
		return 0
	}
	bps := p.Bps()
	if bps > math.MaxUint16 || bps < 0 {
		return math.MaxUint16
	}
	return uint16(bps)
}

// GetPriceImpactWarning returns a user-friendly warning message based on impact
func GetPriceImpactWarning(priceImpactBps uint16) string {
	severity := GetPriceImpactSeverity(priceImpactBps)

	switch severity {
	case SeverityNone:
		return ""
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider reducing trade size"
	case SeverityHigh:
		return "High price impact - you may receive significantly less tokens"
	case SeverityExtreme:
		return "EXTREME price impact - this trade will severely impact the market price"
	default:
		return ""
	}
}
